package availability

// SlotMinutes is the length of one grid slot. A defense consumes two
// consecutive slots.
const SlotMinutes = 30

// DeriveConflicts computes the slots member cannot offer because of the given
// scheduled defenses. For every defense the member takes part in (any role),
// with slot key (d, t):
//
//	(d, t)      booked
//	(d, t+30m)  booked
//	(d, t-30m)  adjacent-unavailable
//
// No buffer is added after the second booked slot. A booked slot is never
// downgraded to adjacent-unavailable, so the result does not depend on the
// order of defenses.
func DeriveConflicts(defenses []Defense, member MemberID) Blocked {
	blocked := make(Blocked)
	for _, d := range defenses {
		if !d.HasParticipant(member) {
			continue
		}
		key := KeyOf(d.Slot)
		blocked.mark(key, ReasonBooked)
		blocked.mark(key.Shift(SlotMinutes), ReasonBooked)
		blocked.mark(key.Shift(-SlotMinutes), ReasonAdjacentUnavailable)
	}
	return blocked
}

func (b Blocked) mark(k Key, r Reason) {
	if b[k] == ReasonBooked {
		return
	}
	b[k] = r
}
