package answer

import (
	"errors"
	"fmt"
)

// Mode selects the framing of the generated answer.
type Mode string

// Answer modes.
const (
	// ModeGeneral answers plainly from the retrieved material.
	ModeGeneral Mode = "general"

	// ModeQuarterly frames the answer as a Sabbath School study helper.
	ModeQuarterly Mode = "quarterly"

	// ModeDevotional frames the answer in a warm, reflective register.
	ModeDevotional Mode = "devotional"
)

// ErrInvalidMode indicates an unrecognised answer mode.
var ErrInvalidMode = errors.New("invalid answer mode")

// ParseMode validates a mode string. The empty string selects
// ModeGeneral.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeGeneral, nil
	case ModeGeneral, ModeQuarterly, ModeDevotional:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// modeInstructions frames the system prompt per mode.
var modeInstructions = map[Mode]string{
	ModeGeneral: "You are a knowledgeable assistant for devotional and Bible study material. " +
		"Answer the question using only the provided context.",
	ModeQuarterly: "You are a Sabbath School study companion. " +
		"Answer the question using only the provided context, connecting it to the lesson material where the context allows. " +
		"Keep the tone of a study guide.",
	ModeDevotional: "You are a devotional companion. " +
		"Answer the question using only the provided context, in a warm and reflective tone suited to personal devotion.",
}

// citationInstruction tells the model how to mark which context entries
// it drew from.
const citationInstruction = "Cite the context entries you use with their bracketed numbers, for example [1] or [2]. " +
	"If the context does not contain the answer, say so plainly instead of inventing one."

// systemPrompt assembles the full system message for a mode and
// context block.
func systemPrompt(mode Mode, contextBlock string) string {
	return modeInstructions[mode] + "\n\nContext:\n" + contextBlock + "\n\n" + citationInstruction
}
