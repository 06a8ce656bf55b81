package netio

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/xtaci/smux"

	"github.com/fluffybytesoftware/fluffymud/grammar"
)

// EchoHandler is a minimal command loop for manual testing and smoke
// checks: it reads one line at a time and echoes back a grammatically
// inflected acknowledgement. "count <n> <word>" replies "<n> <word>" with
// word passed through grammar.Pluralize; any other line is echoed back as
// "you see <a|an> <line>", the article picked by grammar.Article.
func EchoHandler(ctx context.Context, stream *smux.Stream) {
	scanner := bufio.NewScanner(stream)
	writer := bufio.NewWriter(stream)
	defer writer.Flush()

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		reply := handleLine(line)
		if _, err := writer.WriteString(reply + "\n"); err != nil {
			return
		}
		if err := writer.Flush(); err != nil {
			return
		}
	}
}

func handleLine(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 3 && fields[0] == "count" {
		if n, err := strconv.Atoi(fields[1]); err == nil {
			word := grammar.Pluralize(fields[2], n)
			return fmt.Sprintf("%d %s", n, word)
		}
	}
	return "you see " + grammar.Article(line) + " " + line
}
