package cmd

import (
	"flag"
	"fmt"

	"github.com/etnz/declara"
)

// declareCmd extends runCmd with the declarant identity every form needs.
type declareCmd struct {
	runCmd
	name    string
	surname string
	nif     string
	phone   string
}

func (c *declareCmd) setFlags(f *flag.FlagSet) {
	c.runCmd.setFlags(f)
	f.StringVar(&c.name, "name", "", "Declarant first name (required).")
	f.StringVar(&c.surname, "surname", "", "Declarant surname(s) (required).")
	f.StringVar(&c.nif, "nif", "", "Declarant NIF (required).")
	f.StringVar(&c.phone, "phone", "", "Declarant contact phone.")
}

func (c *declareCmd) declarant() (declara.Declarant, error) {
	d := declara.Declarant{
		Name:    c.name,
		Surname: c.surname,
		NIF:     c.nif,
		Phone:   c.phone,
		Year:    c.year,
	}
	if d.Name == "" || d.Surname == "" || d.NIF == "" {
		return d, fmt.Errorf("missing declarant identity: -name, -surname and -nif are required")
	}
	return d, nil
}
