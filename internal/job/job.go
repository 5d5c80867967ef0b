// Package job holds the data model of a single Polyglot TTS job run: the
// request, the handle returned on submission, the polled status, the
// downloaded artifact and the progress events emitted along the way.
package job

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrEmptyText     = errors.New("text to synthesize is empty")
	ErrInvalidGender = errors.New("voice gender must be female or male")
)

type Gender string

const (
	GenderFemale Gender = "female"
	GenderMale   Gender = "male"
)

func ParseGender(s string) (Gender, error) {
	switch g := Gender(strings.ToLower(strings.TrimSpace(s))); g {
	case GenderFemale, GenderMale:
		return g, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGender, s)
	}
}

// Request is one unit of synthesis work. Language is only a hint used to
// pick the polling interval; the server detects the language itself.
type Request struct {
	Gender   Gender
	Text     string
	Language string
}

func NewRequest(gender, text, language string) (Request, error) {
	g, err := ParseGender(gender)
	if err != nil {
		return Request{}, err
	}
	req := Request{Gender: g, Text: text, Language: language}
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return ErrEmptyText
	}
	if r.Gender != GenderFemale && r.Gender != GenderMale {
		return fmt.Errorf("%w: %q", ErrInvalidGender, r.Gender)
	}
	return nil
}

// TextLength counts characters, not bytes, so Indic scripts are not
// penalised by their multi-byte encoding.
func (r Request) TextLength() int {
	return utf8.RuneCountInString(r.Text)
}

// Handle identifies a submitted job and where to poll it.
type Handle struct {
	ID        string
	StatusURL string
}

type State int

const (
	StateUnknown State = iota
	StateProcessing
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateProcessing:
		return "processing"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Status is the result of one poll. Raw keeps the wire value so unknown
// states can be reported verbatim.
type Status struct {
	State State
	Raw   string
}

func ParseStatus(raw string) Status {
	switch raw {
	case "processing":
		return Status{State: StateProcessing, Raw: raw}
	case "complete":
		return Status{State: StateComplete, Raw: raw}
	default:
		return Status{State: StateUnknown, Raw: raw}
	}
}

// Artifact is the downloaded audio file. Size is always > 0.
type Artifact struct {
	JobID string
	Path  string
	Size  int64
}

// Submitter sends a request and returns the handle of the created job.
type Submitter interface {
	Submit(ctx context.Context, req Request) (Handle, error)
}

// StatusChecker fetches the current status of a job. A returned error is a
// transport problem; unrecognised states come back as StateUnknown.
type StatusChecker interface {
	Status(ctx context.Context, h Handle) (Status, []byte, error)
}

// Retriever downloads the finished artifact of a job.
type Retriever interface {
	Retrieve(ctx context.Context, jobID string) (*Artifact, error)
}

// Client is the full remote API surface a job run needs.
type Client interface {
	Submitter
	StatusChecker
	Retriever
}

// formatSeconds renders a duration the way progress messages show it.
func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
