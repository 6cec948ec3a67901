package upload

// Kind classifies what a caller is allowed to upload. It is a closed
// set; Constraints panics on anything else so a bad wiring fails loud
// at startup rather than silently accepting files.
type Kind string

const (
	KindImage    Kind = "image"
	KindDocument Kind = "document"
	// KindAny accepts everything image or document accepts, capped at
	// the image size limit.
	KindAny Kind = "any"
)

func (k Kind) String() string {
	return string(k)
}

func (k Kind) Valid() bool {
	switch k {
	case KindImage, KindDocument, KindAny:
		return true
	}
	return false
}
