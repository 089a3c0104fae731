package ui

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/mattn/go-isatty"
)

const (
	promptSuffixConstant           = " [y/N] "
	affirmativeShortAnswerConstant = "y"
	affirmativeLongAnswerConstant  = "yes"
	responseLineDelimiterConstant  = '\n'
)

// ConfirmationPrompter asks the operator a y/N question.
type ConfirmationPrompter interface {
	Confirm(prompt string) (bool, error)
}

// IOConfirmationPrompter reads confirmation responses from an io.Reader.
type IOConfirmationPrompter struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewIOConfirmationPrompter constructs a prompter from the provided reader and writer.
func NewIOConfirmationPrompter(input io.Reader, output io.Writer) *IOConfirmationPrompter {
	return &IOConfirmationPrompter{reader: bufio.NewReader(input), writer: output}
}

// Confirm writes the prompt and interprets affirmative responses (y/yes). Anything else, including end of input, declines.
func (prompter *IOConfirmationPrompter) Confirm(prompt string) (bool, error) {
	if prompter.writer != nil {
		if _, writeError := io.WriteString(prompter.writer, prompt+promptSuffixConstant); writeError != nil {
			return false, writeError
		}
	}

	response, readError := prompter.reader.ReadString(responseLineDelimiterConstant)
	if readError != nil && !errors.Is(readError, io.EOF) {
		return false, readError
	}

	return isAffirmative(response), nil
}

// TerminalConfirmationPrompter asks through an interactive survey confirm prompt.
type TerminalConfirmationPrompter struct {
	input       terminal.FileReader
	output      terminal.FileWriter
	errorOutput io.Writer
}

// NewTerminalConfirmationPrompter constructs a prompter bound to terminal files.
func NewTerminalConfirmationPrompter(input terminal.FileReader, output terminal.FileWriter, errorOutput io.Writer) *TerminalConfirmationPrompter {
	return &TerminalConfirmationPrompter{input: input, output: output, errorOutput: errorOutput}
}

// Confirm defaults to "no"; an interrupt is treated as a decline.
func (prompter *TerminalConfirmationPrompter) Confirm(prompt string) (bool, error) {
	confirmed := false
	question := &survey.Confirm{Message: prompt, Default: false}
	askError := survey.AskOne(question, &confirmed, survey.WithStdio(prompter.input, prompter.output, prompter.errorOutput))
	if askError != nil {
		if errors.Is(askError, terminal.InterruptErr) {
			return false, nil
		}
		return false, askError
	}
	return confirmed, nil
}

// ResolveConfirmationPrompter picks the survey prompter when both streams are terminals and the line prompter otherwise.
func ResolveConfirmationPrompter(input io.Reader, output io.Writer) ConfirmationPrompter {
	inputFile, inputIsFile := input.(*os.File)
	outputFile, outputIsFile := output.(*os.File)
	if inputIsFile && outputIsFile && isTerminal(inputFile) && isTerminal(outputFile) {
		return NewTerminalConfirmationPrompter(inputFile, outputFile, outputFile)
	}
	return NewIOConfirmationPrompter(input, output)
}

func isTerminal(file *os.File) bool {
	descriptor := file.Fd()
	return isatty.IsTerminal(descriptor) || isatty.IsCygwinTerminal(descriptor)
}

func isAffirmative(response string) bool {
	switch strings.ToLower(strings.TrimSpace(response)) {
	case affirmativeShortAnswerConstant, affirmativeLongAnswerConstant:
		return true
	default:
		return false
	}
}
