package cli

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/dmitrijs2005/voxkeeper/internal/client/client"
	"github.com/dmitrijs2005/voxkeeper/internal/client/services"
)

// getMultiline is the multi-line prompt used when generate has no arguments.
var getMultiline = GetMultiline

const defaultVoice = "default"

// Generate synthesizes speech for the text given as arguments, or prompts for
// it. It costs one credit.
func (a *App) Generate(ctx context.Context, args []string) error {
	text := strings.Join(args, " ")
	if text == "" {
		var err error
		text, err = getMultiline(a.reader, "Enter text to speak", os.Stdout)
		if err != nil {
			return err
		}
	}
	if text == "" {
		return errors.New("nothing to say")
	}

	voice, err := getSimpleText(a.reader, "Voice (empty for "+defaultVoice+")", os.Stdout)
	if err != nil {
		return err
	}
	if voice == "" {
		voice = defaultVoice
	}

	res, err := a.speechService.Generate(ctx, client.SpeechRequest{Text: text, VoiceID: voice})
	switch {
	case errors.Is(err, services.ErrInsufficientCredits):
		return errors.New("you are out of credits, upgrade your plan to continue")
	case errors.Is(err, services.ErrNotAuthenticated):
		return errNotLoggedIn
	case err != nil:
		return err
	}

	printlnFn("Audio ready:", res.AudioURL)
	if res.CreditsRemaining != nil {
		printlnFn("Credits left:", *res.CreditsRemaining)
	}
	return nil
}
