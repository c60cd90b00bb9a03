package core

import (
	"errors"
	"testing"
)

func TestParseIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "full url", raw: "https://www.google.com/accounts/o8/id", want: "https://www.google.com/accounts/o8/id"},
		{name: "bare host defaults to https", raw: "op.example.com", want: "https://op.example.com"},
		{name: "trailing slash trimmed", raw: "https://op.example.com/", want: "https://op.example.com"},
		{name: "fragment dropped", raw: "http://foo.google.com/#frag", want: "http://foo.google.com"},
		{name: "scheme and host lowercased", raw: "HTTPS://OP.Example.COM/Path", want: "https://op.example.com/Path"},
		{name: "surrounding whitespace", raw: "  https://op.example.com  ", want: "https://op.example.com"},
		{name: "bare host with url in query", raw: "op.example.com/x?next=http://y", want: "https://op.example.com/x?next=http://y"},
		{name: "bare host with url in path", raw: "op.example.com/http://y", want: "https://op.example.com/http://y"},
		{name: "empty", raw: "", wantErr: true},
		{name: "blank", raw: "   ", wantErr: true},
		{name: "xri", raw: "=example", wantErr: true},
		{name: "xri scheme", raw: "xri://=example", wantErr: true},
		{name: "unsupported scheme", raw: "ftp://op.example.com", wantErr: true},
		{name: "no host", raw: "https://", wantErr: true},
		{name: "userinfo", raw: "https://user:pw@op.example.com", wantErr: true},
		{name: "host with space", raw: "op example.com", wantErr: true},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Act
			id, err := ParseIdentifier(test.raw)

			// Assert
			if (err != nil) != test.wantErr {
				t.Fatalf("ParseIdentifier(%q) error = %v, wantErr %v", test.raw, err, test.wantErr)
			}
			if test.wantErr {
				if !errors.Is(err, ErrInvalidIdentifier) {
					t.Errorf("expected ErrInvalidIdentifier, got %v", err)
				}
				return
			}
			if id.String() != test.want {
				t.Errorf("ParseIdentifier(%q) = %q, want %q", test.raw, id.String(), test.want)
			}
			if id.Raw() != test.raw {
				t.Errorf("Raw() = %q, want %q", id.Raw(), test.raw)
			}
		})
	}
}
