package parser

import (
	"bufio"
	"io"
	"os"
	"strings"
)

const (
	questionPrefix = "Q:"
	answerPrefix   = "A:"
	contextPrefix  = "C:"
	separator      = "---"
)

type state int

const (
	seeking state = iota
	readingQuestion
	skipping // inside an answer or context block
)

// ParseFile reads a file from the given path and extracts all questions.
func ParseFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from an io.Reader and extracts all questions. A question starts
// with a "Q:" line and runs until the next prefixed line, a "---" separator or
// the end of input. "A:" and "C:" blocks are accepted and ignored.
func Parse(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	var questions []string
	var currentBlock []string
	currentState := seeking

	finishQuestion := func() {
		if currentState == readingQuestion {
			q := strings.TrimSpace(strings.Join(currentBlock, "\n"))
			if q != "" {
				questions = append(questions, q)
			}
		}
		currentBlock = nil
	}

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.TrimSpace(line) == separator:
			finishQuestion()
			currentState = seeking
		case strings.HasPrefix(line, questionPrefix):
			finishQuestion()
			currentState = readingQuestion
			currentBlock = append(currentBlock, trimPrefix(line, questionPrefix))
		case strings.HasPrefix(line, answerPrefix), strings.HasPrefix(line, contextPrefix):
			finishQuestion()
			currentState = skipping
		case currentState == readingQuestion:
			currentBlock = append(currentBlock, line)
		}
	}

	finishQuestion() // Finish the very last question in the file

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return questions, nil
}

func trimPrefix(line, prefix string) string {
	content := line[len(prefix):]
	return strings.TrimPrefix(content, " ")
}
