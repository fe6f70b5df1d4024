package stock

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/inventree/backend/internal/domain/shared"
)

// SerialNumbersField is the field key used for serial extraction errors
const SerialNumbersField = "serial_numbers"

var serialSeparator = regexp.MustCompile(`[\s,]+`)

// IncrementSerial returns the serial that follows value. The trailing integer
// is incremented keeping its zero padding; a value without a trailing integer
// is returned unchanged. An empty value yields "1".
func IncrementSerial(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "1"
	}

	i := len(value)
	for i > 0 && value[i-1] >= '0' && value[i-1] <= '9' {
		i--
	}
	prefix, number := value[:i], value[i:]
	if number == "" {
		return prefix
	}

	n, err := strconv.ParseUint(number, 10, 64)
	if err != nil {
		return value
	}
	return prefix + fmt.Sprintf("%0*d", len(number), n+1)
}

// SerialInt extracts the trailing integer of a serial for ordering purposes
func SerialInt(serial string) int64 {
	serial = strings.TrimSpace(serial)
	i := len(serial)
	for i > 0 && serial[i-1] >= '0' && serial[i-1] <= '9' {
		i--
	}
	n, err := strconv.ParseInt(serial[i:], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// ExtractSerialNumbers expands a serial number expression into exactly
// expected distinct serials.
//
// The expression is a comma or whitespace separated list of groups:
//
//	7        a literal serial
//	1-5      an ascending integer range
//	4+       start at 4 and fill the remaining quantity
//	4+3      4 followed by the next 3 values
//	~        the next serial after latest (repeatable)
//
// When the number of groups already equals expected every group is taken
// literally, so serials containing hyphens or plus signs pass through.
func ExtractSerialNumbers(input string, expected int, latest string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, shared.NewValidationError(SerialNumbersField, "Empty serial number string")
	}
	if expected < 0 {
		return nil, shared.NewValidationError(SerialNumbersField, "Invalid quantity provided")
	}

	next := latest
	for strings.Contains(input, "~") {
		next = IncrementSerial(next)
		input = strings.Replace(input, "~", next, 1)
	}

	var tokens []string
	for _, t := range serialSeparator.Split(input, -1) {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, t)
		}
	}

	x := &serialExtractor{expected: expected, seen: make(map[string]struct{})}
	if len(tokens) == expected {
		for _, t := range tokens {
			x.add(t)
		}
	} else {
		for _, t := range tokens {
			x.expand(t)
		}
	}

	if x.errs.HasErrors() {
		return nil, x.errs
	}
	if len(x.serials) == 0 {
		return nil, shared.NewValidationError(SerialNumbersField, "No serial numbers found")
	}
	if len(x.serials) != expected {
		return nil, shared.NewValidationError(SerialNumbersField,
			fmt.Sprintf("Number of unique serial numbers (%d) must match quantity (%d)", len(x.serials), expected))
	}
	return x.serials, nil
}

type serialExtractor struct {
	expected int
	serials  []string
	seen     map[string]struct{}
	errs     *shared.ValidationError
}

func (x *serialExtractor) fail(msg string) {
	if x.errs == nil {
		x.errs = &shared.ValidationError{Kind: shared.KindValidation}
	}
	x.errs.Add(SerialNumbersField, msg)
}

func (x *serialExtractor) add(serial string) {
	if _, dup := x.seen[serial]; dup {
		x.fail(fmt.Sprintf("Duplicate serial: %s", serial))
		return
	}
	x.seen[serial] = struct{}{}
	x.serials = append(x.serials, serial)
}

func (x *serialExtractor) remaining() int {
	return x.expected - len(x.serials)
}

func (x *serialExtractor) expand(token string) {
	switch {
	case strings.Count(token, "-") == 1:
		x.expandRange(token)
	case strings.Count(token, "-") > 1:
		x.add(token)
	case strings.Contains(token, "+"):
		x.expandSequence(token)
	default:
		x.add(token)
	}
}

func (x *serialExtractor) expandRange(token string) {
	lo, hi, _ := strings.Cut(token, "-")
	a, errA := strconv.Atoi(strings.TrimSpace(lo))
	b, errB := strconv.Atoi(strings.TrimSpace(hi))
	if errA != nil || errB != nil || a >= b {
		x.fail(fmt.Sprintf("Invalid group range: %s", token))
		return
	}
	if b-a+1 > x.remaining() {
		x.fail(fmt.Sprintf("Group range %s exceeds allowed quantity (%d)", token, x.expected))
		return
	}
	for n := a; n <= b; n++ {
		x.add(strconv.Itoa(n))
	}
}

func (x *serialExtractor) expandSequence(token string) {
	parts := strings.Split(token, "+")
	if len(parts) != 2 || parts[0] == "" {
		x.fail(fmt.Sprintf("Invalid group sequence: %s", token))
		return
	}

	count := x.remaining()
	if parts[1] != "" {
		k, err := strconv.Atoi(parts[1])
		if err != nil || k < 0 {
			x.fail(fmt.Sprintf("Invalid group sequence: %s", token))
			return
		}
		count = k + 1
	}
	if count <= 0 || count > x.remaining() {
		x.fail(fmt.Sprintf("Group sequence %s exceeds allowed quantity (%d)", token, x.expected))
		return
	}

	value := parts[0]
	for i := 0; i < count; i++ {
		x.add(value)
		nextValue := IncrementSerial(value)
		if i < count-1 && nextValue == value {
			x.fail(fmt.Sprintf("Invalid group sequence: %s", token))
			return
		}
		value = nextValue
	}
}
