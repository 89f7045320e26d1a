package labelsheet

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ReadOptions controls how a delimited text file is read.
//
// A nil ReadOptions detects the delimiter and reads UTF-8 input.
type ReadOptions struct {
	// Delimiter separates fields. Zero detects it from the first lines
	// among comma, tab, pipe and semicolon, falling back to comma.
	Delimiter rune

	// Encoding is a WHATWG encoding label such as "windows-1252" or
	// "shift_jis". Empty means UTF-8. A byte order mark always wins.
	Encoding string
}

var delimiterCandidates = []rune{',', '\t', '|', ';'}

// delimiterSampleLines bounds how many lines delimiter detection inspects.
const delimiterSampleLines = 10

// ReadLabelsFile reads the delimited text file at path with [ReadLabels].
func ReadLabelsFile(path string, opts *ReadOptions) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "labelsheet: opening input")
	}
	defer f.Close()
	return ReadLabels(f, opts)
}

// ReadLabels parses delimited rows from r and flattens every cell of every
// row, in row-major order, into one label sequence.
//
// No header is interpreted and cell contents are not validated. Each blank
// line contributes one empty label; a final line terminator does not.
// Parsers that keep empty lines often report the text after the last line
// terminator as one more empty row, so "A\n" reads as ["A", ""] there;
// ReadLabels reads it as ["A"]. Blank lines before the terminator, as in
// "A\n\n", still yield empty labels.
func ReadLabels(r io.Reader, opts *ReadOptions) ([]string, error) {
	if opts == nil {
		opts = &ReadOptions{}
	}

	data, err := decodeInput(r, opts.Encoding)
	if err != nil {
		return nil, err
	}

	delim := opts.Delimiter
	if delim == 0 {
		delim = detectDelimiter(data)
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	// encoding/csv drops blank lines; line positions are tracked so each
	// dropped line is restored as an empty row.
	var (
		labels   []string
		nextLine = 1
		newlines int
		consumed int64
	)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "labelsheet: parsing input")
		}

		line, _ := cr.FieldPos(0)
		for ; nextLine < line; nextLine++ {
			labels = append(labels, "")
		}
		labels = append(labels, record...)

		offset := cr.InputOffset()
		newlines += bytes.Count(data[consumed:offset], []byte{'\n'})
		nextLine = newlines + 1
		consumed = offset
	}

	// Whatever follows the last record is blank lines only.
	for i := bytes.Count(data[consumed:], []byte{'\n'}); i > 0; i-- {
		labels = append(labels, "")
	}
	return labels, nil
}

// decodeInput reads r fully, strips a byte order mark and converts the
// named legacy encoding to UTF-8.
func decodeInput(r io.Reader, encoding string) ([]byte, error) {
	var fallback transform.Transformer = transform.Nop
	if encoding != "" {
		enc, err := htmlindex.Get(encoding)
		if err != nil {
			return nil, errors.Wrapf(err, "labelsheet: input encoding %q", encoding)
		}
		fallback = enc.NewDecoder()
	}
	data, err := io.ReadAll(transform.NewReader(r, unicode.BOMOverride(fallback)))
	if err != nil {
		return nil, errors.Wrap(err, "labelsheet: reading input")
	}
	return data, nil
}

// detectDelimiter picks the candidate that splits the sampled lines into
// the same, largest number of fields.
func detectDelimiter(data []byte) rune {
	var sample []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		sample = append(sample, line)
		if len(sample) == delimiterSampleLines {
			break
		}
	}

	best, bestCount := ',', 0
	for _, cand := range delimiterCandidates {
		count := -1
		for _, line := range sample {
			n := strings.Count(line, string(cand))
			if count == -1 {
				count = n
			} else if n != count {
				count = 0
				break
			}
		}
		if count > bestCount {
			best, bestCount = cand, count
		}
	}
	return best
}
