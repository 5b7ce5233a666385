package story

import "errors"

// Kind classifies failures by the subsystem that produced them.
type Kind int

const (
	FetchError Kind = iota + 1
	AudioError
	SpeechError
	PersistError
)

func (k Kind) String() string {
	switch k {
	case FetchError:
		return "fetch"
	case AudioError:
		return "audio"
	case SpeechError:
		return "speech"
	case PersistError:
		return "persist"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching against a Failure's kind.
var (
	ErrFetch   = errors.New("story fetch failed")
	ErrAudio   = errors.New("audio playback failed")
	ErrSpeech  = errors.New("speech failed")
	ErrPersist = errors.New("story storage failed")
)

// Failure is returned across subsystem boundaries.
type Failure struct {
	Kind Kind
	Op   string
	Err  error
}

func NewFailure(kind Kind, op string, err error) *Failure {
	return &Failure{Kind: kind, Op: op, Err: err}
}

func (f *Failure) Error() string {
	msg := f.Kind.String() + " error"
	if f.Op != "" {
		msg += " during " + f.Op
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Is matches the kind sentinels so callers can write errors.Is(err, story.ErrFetch).
func (f *Failure) Is(target error) bool {
	switch target {
	case ErrFetch:
		return f.Kind == FetchError
	case ErrAudio:
		return f.Kind == AudioError
	case ErrSpeech:
		return f.Kind == SpeechError
	case ErrPersist:
		return f.Kind == PersistError
	}
	return false
}

// KindOf reports the kind of the first Failure in err's chain, or 0.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return 0
}
