package agent

import "errors"

// Generation errors. Provider failures are wrapped so the cause stays reachable.
var (
	ErrContentGenerationFailed = errors.New("content generation failed")
	ErrGenerationEmpty         = errors.New("content generation returned an empty response")
	ErrGenerationMalformed     = errors.New("content generation returned a malformed response")
	ErrCoverGenerationFailed   = errors.New("cover generation failed")
	ErrNoImageProduced         = errors.New("no image was produced")
)
