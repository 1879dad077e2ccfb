package dbquery

import "github.com/demiplane/demiplane/pkg/outcome"

func notRegistered(name string) error {
	return outcome.New(outcome.NotRegistered, "no query registered under name %q", name)
}
