package filekit

// Status is the phase of a processing session.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusUploading  Status = "uploading"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
)

var transitions = map[Status][]Status{
	StatusIdle:       {StatusUploading, StatusProcessing},
	StatusUploading:  {StatusProcessing, StatusComplete, StatusError, StatusIdle},
	StatusProcessing: {StatusComplete, StatusError, StatusIdle},
	StatusComplete:   {StatusIdle},
	StatusError:      {StatusIdle},
}

// CanTransition reports whether the session may move from one status to
// another.
func (s Status) CanTransition(to Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s holds a result.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// Active reports whether a run is in flight.
func (s Status) Active() bool {
	return s == StatusUploading || s == StatusProcessing
}

// State is an immutable snapshot of a Session.
//
// Err is set only in StatusError and Artifact only in StatusComplete.
type State struct {
	Status   Status
	Progress int
	Files    []FileCandidate
	Err      *Error
	Artifact *Handle
}
