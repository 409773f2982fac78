package engine

// Replay rebuilds a match from its command log. Commands the live room rejected are
// rejected again here and skipped, so the result matches the room's final state.
func Replay(rules Rules, cmds []Command) (State, []Event) {
	s := NewState(rules)
	var log []Event
	for _, cmd := range cmds {
		events, next, err := Apply(s, cmd)
		if err != nil {
			continue
		}
		s = next
		log = append(log, events...)
	}
	return s, log
}
