package token

// SyntaxError is a rejected command line. The reason is the exact
// diagnostic shown to the user; the line is discarded without spawning
// anything.
type SyntaxError struct {
	Reason string
}

func (e *SyntaxError) Error() string {
	return e.Reason
}

func syntaxErr(reason string) error {
	return &SyntaxError{Reason: reason}
}

const (
	errMultipleInput  = "mish: multiple input redirect or pipe"
	errMultipleOutput = "mish: multiple output redirect or pipe"
	errUnexpectedPipe = "mish: syntax error, unexpected PIPE, expecting STRING"
	errImproperMix    = "mish: improper mixing of pipes and redirections"
	errUnexpectedAmp  = "mish: syntax error, unexpected '&'"
)

// Validate checks a token sequence for malformed pipe and redirection
// placement. A trailing background marker is stripped first and reported
// through the second return value; it is otherwise invisible to the
// checks. On success the (possibly shortened) token sequence is returned
// unchanged.
//
// Rules, each with its own diagnostic:
//   - "<" at most once, never first, never directly after "|".
//   - ">" at most once, never first, never directly after "|".
//   - "|" never first or last, never directly after another "|".
//   - "|" adjacent to a redirect on either side is an improper mix,
//     independent of the counting rules.
func Validate(tokens []Token) ([]Token, bool, error) {
	background := false
	if n := len(tokens); n > 0 && tokens[n-1].Kind == Background {
		background = true
		tokens = tokens[:n-1]
	}

	inCount, outCount := 0, 0
	for i, t := range tokens {
		afterPipe := i > 0 && tokens[i-1].Kind == Pipe

		switch t.Kind {
		case RedirectIn:
			inCount++
			if i == 0 || afterPipe || inCount > 1 {
				return nil, false, syntaxErr(errMultipleInput)
			}
		case RedirectOut:
			outCount++
			if i == 0 || afterPipe || outCount > 1 {
				return nil, false, syntaxErr(errMultipleOutput)
			}
		case Pipe:
			if i == 0 || i == len(tokens)-1 || afterPipe {
				return nil, false, syntaxErr(errUnexpectedPipe)
			}
			if isRedirect(tokens[i-1]) || isRedirect(tokens[i+1]) {
				return nil, false, syntaxErr(errImproperMix)
			}
		case Background:
			// Only a single trailing marker is meaningful.
			return nil, false, syntaxErr(errUnexpectedAmp)
		}
	}

	return tokens, background, nil
}

func isRedirect(t Token) bool {
	return t.Kind == RedirectIn || t.Kind == RedirectOut
}
