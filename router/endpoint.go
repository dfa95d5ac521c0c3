package router

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	endpointVersionRe  = regexp.MustCompile(`^V(\d+)$`)
	endpointHexFlagsRe = regexp.MustCompile(`^0x[0-9A-Fa-f]+$`)
	endpointIP4Re      = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}$`)
)

// String renders e in the canonical single-line form:
//
//	API_NAME [V<version> ] [HTTP ][WS ][S ][TOR ][0xHEX ][IPv4 ][[IPv6] ][domain ]PORT[ path]
//
// Field order is fixed; a section is entirely omitted (no stray space)
// when its value is empty or zero. Two endpoints are equal iff their
// canonical forms are, so String is also the equality relation
// implemented by Equal.
func (e Endpoint) String() string {
	fields := make([]string, 0, 12)
	fields = append(fields, e.ApiName)
	if e.ApiVersion > 0 {
		fields = append(fields, fmt.Sprintf("V%d", e.ApiVersion))
	}
	if e.HTTP {
		fields = append(fields, "HTTP")
	}
	if e.WS {
		fields = append(fields, "WS")
	}
	if e.TLS {
		fields = append(fields, "S")
	}
	if e.TOR {
		fields = append(fields, "TOR")
	}
	if e.ApiFlags != 0 {
		fields = append(fields, fmt.Sprintf("0x%X", e.ApiFlags))
	}
	if e.IP4 != "" {
		fields = append(fields, e.IP4)
	}
	if e.IP6 != "" {
		fields = append(fields, "["+e.IP6+"]")
	}
	if e.Domain != "" {
		fields = append(fields, e.Domain)
	}
	fields = append(fields, strconv.Itoa(e.Port))
	if e.Path != "" {
		fields = append(fields, e.Path)
	}
	return strings.Join(fields, " ")
}

// Equal reports whether e and o share a canonical textual form.
func (e Endpoint) Equal(o Endpoint) bool {
	return e.String() == o.String()
}

// ParseEndpoint parses the canonical single-line endpoint grammar.
// It accepts both the legacy form (API host port [path]), whose bare host
// field lands in IP4, IP6 or Domain according to its shape, and the full v2
// form with version, network/API feature flags, and any combination of
// ip4/ip6/domain host fields.
func ParseEndpoint(s string) (Endpoint, error) {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrMalformedEndpoint, s)
	}

	var e Endpoint
	e.ApiName = fields[0]
	i := 1

	if m := endpointVersionRe.FindStringSubmatch(fields[i]); m != nil {
		v, err := strconv.Atoi(m[1])
		if err != nil {
			return Endpoint{}, fmt.Errorf("%w: bad version %q", ErrMalformedEndpoint, fields[i])
		}
		e.ApiVersion = v
		i++
	}

flags:
	for i < len(fields) {
		switch fields[i] {
		case "HTTP":
			e.HTTP = true
		case "WS":
			e.WS = true
		case "S":
			e.TLS = true
		case "TOR":
			e.TOR = true
		default:
			break flags
		}
		i++
	}

	if i < len(fields) && endpointHexFlagsRe.MatchString(fields[i]) {
		v, err := strconv.ParseUint(fields[i][2:], 16, 64)
		if err != nil {
			return Endpoint{}, fmt.Errorf("%w: bad api_flags %q", ErrMalformedEndpoint, fields[i])
		}
		e.ApiFlags = v
		i++
	}

	if i < len(fields) && endpointIP4Re.MatchString(fields[i]) {
		e.IP4 = fields[i]
		i++
	}

	if i < len(fields) && strings.HasPrefix(fields[i], "[") && strings.HasSuffix(fields[i], "]") {
		e.IP6 = strings.TrimSuffix(strings.TrimPrefix(fields[i], "["), "]")
		i++
	}

	if i < len(fields) {
		if _, err := strconv.Atoi(fields[i]); err != nil {
			e.Domain = fields[i]
			i++
		}
	}

	if i >= len(fields) {
		return Endpoint{}, fmt.Errorf("%w: missing port in %q", ErrMalformedEndpoint, s)
	}
	port, err := strconv.Atoi(fields[i])
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: bad port %q", ErrMalformedEndpoint, fields[i])
	}
	e.Port = port
	i++

	if i < len(fields) {
		e.Path = strings.Join(fields[i:], " ")
	}

	return e, nil
}
