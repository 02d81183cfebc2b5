package ir

// Session is a recorded span of clock edges against one lock.
//
// The reference digits are never stored. TableHash identifies which
// sequence the session ran against, and Length is kept so a replay can
// check it has the right table before comparing edges.
type Session struct {
	ID            string `json:"id"`
	LockName      string `json:"lock_name"`
	TableHash     string `json:"table_hash"`
	Length        int    `json:"length"`
	CreatedSeq    int64  `json:"created_seq"`
	EngineVersion string `json:"engine_version"`
	IRVersion     string `json:"ir_version"`
}

// Cycle is one recorded clock edge.
//
// ID is content-addressed (see CycleID). Status is the projected status
// code after the edge.
type Cycle struct {
	ID         string     `json:"id"`
	SessionID  string     `json:"session_id"`
	Transition Transition `json:"transition"`
	Status     uint8      `json:"status"`
}

// NewCycle builds a cycle record for t and computes its ID.
func NewCycle(session string, t Transition, status uint8) (Cycle, error) {
	id, err := CycleID(session, t.Seq, t.Input, t.After)
	if err != nil {
		return Cycle{}, err
	}
	return Cycle{ID: id, SessionID: session, Transition: t, Status: status}, nil
}
