package services

import (
	"fmt"

	"github.com/celestiaorg/peakinvestigator/internal/types"
)

// TierSelector picks the response time objective and PeakInvestigator
// version for a job from what INIT offered
type TierSelector interface {
	Choose(tiers []types.TierOption, versions []string, funds string) (tier, version string, err error)
}

// ConfiguredSelector chooses from fixed configuration, for unattended runs.
// Empty fields fall back to the first option the service listed.
type ConfiguredSelector struct {
	Tier    string
	Version string
}

// Choose implements TierSelector
func (s ConfiguredSelector) Choose(tiers []types.TierOption, versions []string, _ string) (string, string, error) {
	names := make([]string, 0, len(tiers))
	for _, t := range tiers {
		names = append(names, t.Name)
	}

	tier, err := pick("RTO", s.Tier, names)
	if err != nil {
		return "", "", err
	}
	version, err := pick("PIVersion", s.Version, versions)
	if err != nil {
		return "", "", err
	}
	return tier, version, nil
}

func pick(field, configured string, offered []string) (string, error) {
	if configured == "" {
		if len(offered) == 0 {
			return "", fmt.Errorf("no %s configured and none offered by the service", field)
		}
		return offered[0], nil
	}
	if len(offered) == 0 {
		return configured, nil
	}
	for _, o := range offered {
		if o == configured {
			return configured, nil
		}
	}
	return "", fmt.Errorf("%s %q is not offered by the service (available: %v)", field, configured, offered)
}
