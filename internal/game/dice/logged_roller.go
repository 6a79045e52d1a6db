package dice

import "go.uber.org/zap"

// Roller rolls or records d20 faces and logs each one at debug level.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Roll returns a random face in [1, Sides].
func (r *Roller) Roll(check string) int {
	face := r.src.Intn(Sides) + 1
	r.logger.Debug("dice roll",
		zap.String("check", check),
		zap.Int("face", face),
		zap.Bool("submitted", false),
	)
	return face
}

// Record parses a submitted face and logs it together with the modifier
// that will be applied.
//
// Postcondition: Returns the face or an error wrapping ErrInvalidFace.
func (r *Roller) Record(check, text string, modifier int) (int, error) {
	face, err := ParseFace(text)
	if err != nil {
		return 0, err
	}
	r.logger.Debug("dice roll",
		zap.String("check", check),
		zap.Int("face", face),
		zap.Int("modifier", modifier),
		zap.Int("total", face+modifier),
		zap.Bool("submitted", true),
	)
	return face, nil
}

// Source returns the underlying randomness source.
func (r *Roller) Source() Source { return r.src }
