package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrAdmissionRejected means the stage queue was full at accept time.
	ErrAdmissionRejected = errors.New("admission rejected")
	// ErrServiceFailure means a stochastic failure was drawn while processing.
	ErrServiceFailure = errors.New("service failure")
)

// FailureKind classifies how an Event resolved.
type FailureKind int

const (
	Success FailureKind = iota
	AdmissionRejected
	ServiceFailure
)

func (k FailureKind) String() string {
	switch k {
	case Success:
		return "success"
	case AdmissionRejected:
		return "admission-rejected"
	case ServiceFailure:
		return "service-failure"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// Outcome is the result a stage reports for one Event.
// Stage names the stage that produced a failure; it is empty on success.
type Outcome struct {
	Kind  FailureKind
	Stage string
}

// Succeeded returns the success outcome.
func Succeeded() Outcome {
	return Outcome{Kind: Success}
}

// Rejected returns an admission rejection produced by stage.
func Rejected(stage string) Outcome {
	return Outcome{Kind: AdmissionRejected, Stage: stage}
}

// Failed returns a service failure produced by stage.
func Failed(stage string) Outcome {
	return Outcome{Kind: ServiceFailure, Stage: stage}
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool {
	return o.Kind == Success
}

// Err converts the outcome to an error wrapping ErrAdmissionRejected or ErrServiceFailure.
// Returns nil on success.
func (o Outcome) Err() error {
	switch o.Kind {
	case Success:
		return nil
	case AdmissionRejected:
		return fmt.Errorf("%s: %w", o.Stage, ErrAdmissionRejected)
	default:
		return fmt.Errorf("%s: %w", o.Stage, ErrServiceFailure)
	}
}

func (o Outcome) String() string {
	if o.OK() {
		return o.Kind.String()
	}
	return o.Stage + ":" + o.Kind.String()
}
