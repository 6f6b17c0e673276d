package routes

type submitKey struct {
	surveyId int64
	userId   int64
}

type inflightReq struct {
	start  bool
	key    submitKey
	result chan<- bool
}

// inflight tracks submissions being processed, so one user cannot run two
// submissions of the same survey at once. A single goroutine owns the set.
type inflight chan inflightReq

func newInflight() inflight {
	reqs := make(inflight)
	go func() {
		busy := make(map[submitKey]bool)

		for req := range reqs {
			if req.start {
				req.result <- busy[req.key]
				busy[req.key] = true
			} else {
				delete(busy, req.key)
			}
		}
	}()
	return reqs
}

// acquire reports false if the key is already being processed.
func (f inflight) acquire(key submitKey) bool {
	result := make(chan bool)
	f <- inflightReq{true, key, result}
	return !<-result
}

func (f inflight) release(key submitKey) {
	f <- inflightReq{false, key, nil}
}
