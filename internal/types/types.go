// Package types holds the data model shared by the PeakInvestigator client
package types

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

// Action is a control-plane protocol action
type Action string

// Protocol actions understood by the PeakInvestigator API
const (
	ActionInit   Action = "INIT"
	ActionRun    Action = "RUN"
	ActionStatus Action = "STATUS"
	ActionPrep   Action = "PREP"
	ActionSFTP   Action = "SFTP"
	ActionDelete Action = "DELETE"
)

// Mode is the operation a job session performs
type Mode string

// Session modes
const (
	ModeSubmit Mode = "SUBMIT"
	ModeCheck  Mode = "CHECK"
	ModeFetch  Mode = "FETCH"
	ModeDelete Mode = "DELETE"
)

// Account identifies the PeakInvestigator account used for every request
type Account struct {
	Server   string `json:"server"`
	Username string `json:"username"`
	Secret   string `json:"-"`
	ID       string `json:"account"`
}

// Validate checks that the account can sign requests
func (a Account) Validate() error {
	if a.Server == "" {
		return errors.New("server is required")
	}
	if a.Username == "" {
		return errors.New("username is required")
	}
	if a.Secret == "" {
		return errors.New("password is required")
	}
	return nil
}

// WithServer returns a copy of the account pointed at a different server
func (a Account) WithServer(server string) Account {
	if server != "" {
		a.Server = server
	}
	return a
}

// TransferCredentials is an ephemeral SFTP access grant for one session
type TransferCredentials struct {
	Host      string
	Port      int
	Directory string
	Login     string
	Secret    string
}

// Address returns host:port for dialing
func (c TransferCredentials) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// String never includes the secret
func (c TransferCredentials) String() string {
	return fmt.Sprintf("%s@%s:%s", c.Login, c.Address(), c.Directory)
}

// MassBounds are the minimum and maximum m/z admitted into a job
type MassBounds struct {
	Min float64 `json:"min_mass"`
	Max float64 `json:"max_mass"`
}

// Validate enforces 0 <= Min <= Max
func (b MassBounds) Validate() error {
	if b.Min < 0 {
		return fmt.Errorf("minimum mass must not be negative, got %g", b.Min)
	}
	if b.Min > b.Max {
		return fmt.Errorf("minimum mass %g exceeds maximum mass %g", b.Min, b.Max)
	}
	return nil
}

// TierOption is one response-time objective offered by INIT
type TierOption struct {
	Name          string `json:"RTO"`
	EstimatedCost string `json:"EstCost"`
}
