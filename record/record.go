// Package record parses the newline-delimited scan log format.
//
// Two record kinds are recognized:
//
//	HIT|P: 12.345,-6.7,8.9|N: 0.0,1.0,0.0
//	MISS|S: 0.0,0.0,0.0|E: 10.0,0.0,0.0
//
// Anything else is skipped.
package record

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/aukilabs/jord/models"
)

// FragmentPrefix tags partial lines flushed by the tailer on rotation,
// truncation, deletion and shutdown. Fragment lines are never parsed.
const FragmentPrefix = "[FRAGMENT] "

// Floats use a dot as decimal separator regardless of locale. No exponent.
const num = `([-+]?(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+))`

var (
	hitPattern  = regexp.MustCompile(`^HIT\|P: ?` + num + `,` + num + `,` + num + `\|N: ?` + num + `,` + num + `,` + num + `$`)
	missPattern = regexp.MustCompile(`^MISS\|S: ?` + num + `,` + num + `,` + num + `\|E: ?` + num + `,` + num + `,` + num + `$`)
)

// Record is a parsed log line. Exactly one of Hit or Miss is set.
type Record struct {
	Hit  *models.Vertex
	Miss *models.Ray
}

// Parse recognizes a single log line. It reports false for empty lines,
// fragments and lines matching neither pattern.
func Parse(line string) (Record, bool) {
	if line == "" || strings.HasPrefix(line, FragmentPrefix) {
		return Record{}, false
	}

	if m := hitPattern.FindStringSubmatch(line); m != nil {
		v := parseVec3(m[1:4])
		n := parseVec3(m[4:7])
		return Record{Hit: models.NewVertex(v, n)}, true
	}

	if m := missPattern.FindStringSubmatch(line); m != nil {
		s := parseVec3(m[1:4])
		e := parseVec3(m[4:7])
		ray := models.NewRay(s, e)
		return Record{Miss: &ray}, true
	}

	return Record{}, false
}

func parseVec3(fields []string) models.Vec3 {
	// the pattern guarantees the fields parse
	x, _ := strconv.ParseFloat(fields[0], 64)
	y, _ := strconv.ParseFloat(fields[1], 64)
	z, _ := strconv.ParseFloat(fields[2], 64)
	return models.NewVec3(x, y, z)
}
