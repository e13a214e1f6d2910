package mailer

import (
	"net"
	"net/textproto"
	"strings"
	"syscall"

	"github.com/pkg/errors"
)

// Hint translates a transport error into a short operator-facing explanation
// shown next to the settings form.
func Hint(err error) string {
	if err == nil {
		return ""
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "SMTP host not found. Check the hostname."
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return "Connection refused. Check the host and port."
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "Connection timed out. The server did not respond."
	}

	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		switch protoErr.Code {
		case 530, 534, 535:
			return "Authentication failed. Check the username and password."
		}
	}
	if strings.Contains(strings.ToLower(err.Error()), "auth") {
		return "Authentication failed. Check the username and password."
	}

	return "Could not reach the SMTP server. Check the settings."
}
