package pipeline

import (
	"github.com/google/uuid"
	"github.com/shouni/gemini-icon-kit/pkg/domain"
)

// State は1回の送信の進行状態です。
type State string

const (
	StateIdle           State = "Idle"
	StateBuilding       State = "Building"
	StateRequesting     State = "Requesting"
	StatePostProcessing State = "PostProcessing"
	StateDone           State = "Done"
	StateFailed         State = "Failed"
)

// IsTerminal は Done または Failed の場合に true を返します。
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

// Submission は1回の送信の記録です。送信ごとに新しく作られ、他の送信とは何も共有しません。
type Submission struct {
	ID      string
	Request *domain.GenerationRequest
	Result  domain.GenerationResult

	states  []State
	warning error
}

func newSubmission(req *domain.GenerationRequest) *Submission {
	return &Submission{
		ID:      uuid.NewString(),
		Request: req,
		states:  []State{StateIdle},
	}
}

// States は通過した状態を順に返します。
func (s *Submission) States() []State {
	out := make([]State, len(s.states))
	copy(out, s.states)
	return out
}

// State は現在の状態を返します。
func (s *Submission) State() State {
	return s.states[len(s.states)-1]
}

// Warning は送信を失敗させなかった問題 (透過処理の DecodeFailure) を返します。
func (s *Submission) Warning() error {
	return s.warning
}

func (s *Submission) transition(next State) {
	s.states = append(s.states, next)
}

func (s *Submission) fail(err error) {
	s.Result = domain.NewFailureResult(err)
	s.transition(StateFailed)
}

func (s *Submission) succeed(a domain.Artifact) {
	s.Result = domain.NewArtifactResult(a)
	s.transition(StateDone)
}
