package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/reportdesk/internal/client/models"
	"golang.org/x/term"
)

// Terminal seams, swapped out in tests.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// GetSimpleText prints prompt followed by "> " and reads one trimmed line.
// A final line without a newline is still returned.
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetPassword reads a password without echo. When stdin is not a
// terminal (piped input) the password is read as a plain line from
// reader instead. Callers wipe the returned slice.
func GetPassword(reader *bufio.Reader, prompt string, w io.Writer) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		line, err := GetSimpleText(reader, prompt, w)
		if err != nil {
			return nil, err
		}
		return []byte(line), nil
	}

	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return nil, err
	}
	pw, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// readBlock collects lines up to the first empty one (or EOF), without
// their line endings.
func readBlock(reader *bufio.Reader) []string {
	lines := make([]string, 0)
	for {
		line, err := reader.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			return lines
		}
		lines = append(lines, line)
		if err != nil {
			return lines
		}
	}
}

// GetMultiline reads free text that ends at an empty line.
func GetMultiline(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n(press Enter on an empty line to finish)\n"); err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.Join(readBlock(reader), "\n")), nil
}

// GetFields prompts for "name=value" lines until an empty line and
// returns the raw lines unchanged. Use ParseFields to turn them into a row.
func GetFields(reader *bufio.Reader, prompt string, w io.Writer) ([]string, error) {
	if _, err := fmt.Fprint(w, prompt+" in the format name=value (empty line to finish)\n"); err != nil {
		return nil, err
	}

	return readBlock(reader), nil
}

// ParseFields splits each line on the first '='. Names are trimmed and
// must be non-empty; values are kept as typed, except that a value that
// parses as JSON (number, bool, null, object, array) is stored decoded.
func ParseFields(lines []string) (models.Row, error) {
	row := models.Row{}
	for _, line := range lines {
		name, value, ok := strings.Cut(line, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid field %q, expected name=value", line)
		}
		row[name] = fieldValue(strings.TrimSpace(value))
	}
	return row, nil
}

func fieldValue(v string) any {
	if v == "" {
		return v
	}
	var decoded any
	if err := json.Unmarshal([]byte(v), &decoded); err != nil {
		return v
	}
	if _, isString := decoded.(string); isString {
		return v
	}
	return decoded
}
