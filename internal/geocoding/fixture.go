package geocoding

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/nearby/internal/models"
	"github.com/jonboulle/clockwork"
)

// FixtureProvider answers from a fixed address table. It never touches the network,
// which makes it suitable for local runs and deterministic tests.
type FixtureProvider struct {
	table map[string]models.Location
	delay time.Duration
	clock clockwork.Clock
	log   *slog.Logger
}

// ErrFixtureMiss is returned for addresses missing from the table.
var ErrFixtureMiss = fmt.Errorf("address is not in the fixture table: %w", ErrUnresolved)

// DefaultFixtures holds well-known Seattle area and Austin sitter addresses keyed the
// same way sitters build their geocoding key ("<address>, <city>").
var DefaultFixtures = map[string]models.Location{
	"2045 15th Ave W, Seattle, WA 98119, Seattle":        {Latitude: 47.6358, Longitude: -122.3745},
	"425 15th Ave E, Seattle, WA 98112, Seattle":         {Latitude: 47.6223, Longitude: -122.3129},
	"8765 Greenwood Ave N, Seattle, WA 98103, Seattle":   {Latitude: 47.6934, Longitude: -122.3550},
	"432 NE 85th St, Seattle, WA 98115, Seattle":         {Latitude: 47.6913, Longitude: -122.3232},
	"612 N 85th St, Seattle, WA 98103, Seattle":          {Latitude: 47.6913, Longitude: -122.3472},
	"315 Main St, Kirkland, WA 98033, Kirkland":          {Latitude: 47.6768, Longitude: -122.2059},
	"16625 Redmond Way, Redmond, WA 98052, Redmond":      {Latitude: 47.6740, Longitude: -122.1215},
	"1055 Bellevue Way NE, Bellevue, WA 98004, Bellevue": {Latitude: 47.6101, Longitude: -122.2015},
	"710 Bellevue Way NE, Bellevue, WA 98004, Bellevue":  {Latitude: 47.6142, Longitude: -122.2001},
	"12620 SE 41st Pl, Bellevue, WA 98006, Bellevue":     {Latitude: 47.5814, Longitude: -122.1696},
	"1503 S Lamar Blvd, Austin, TX 78704, Austin":        {Latitude: 30.2540, Longitude: -97.7648},
	"1715 E 6th St, Austin, TX 78702, Austin":            {Latitude: 30.2669, Longitude: -97.7234},
	"8500 N Lamar Blvd, Austin, TX 78753, Austin":        {Latitude: 30.3607, Longitude: -97.6889},
	"2600 Guadalupe St, Austin, TX 78705, Austin":        {Latitude: 30.2968, Longitude: -97.7420},
	"4208 W 35th St, Austin, TX 78703, Austin":           {Latitude: 30.3079, Longitude: -97.7584},
	"1823 E Cesar Chavez St, Austin, TX 78702, Austin":   {Latitude: 30.2591, Longitude: -97.7189},
	"3825 Airport Blvd, Austin, TX 78722, Austin":        {Latitude: 30.2955, Longitude: -97.7006},
	"2800 S 1st St, Austin, TX 78704, Austin":            {Latitude: 30.2409, Longitude: -97.7677},
	"6500 Burnet Rd, Austin, TX 78757, Austin":           {Latitude: 30.3378, Longitude: -97.7261},
	"1200 W 6th St, Austin, TX 78703, Austin":            {Latitude: 30.2698, Longitude: -97.7569},
}

// NewFixtureProvider creates a provider over a copy of table. A positive delay is
// waited out on clock before every answer.
func NewFixtureProvider(
	table map[string]models.Location,
	delay time.Duration,
	clock clockwork.Clock,
	log *slog.Logger,
) *FixtureProvider {
	copied := make(map[string]models.Location, len(table))
	for address, loc := range table {
		copied[address] = loc
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &FixtureProvider{table: copied, delay: delay, clock: clock, log: log}
}

// Geocode looks the address up in the table.
func (fp *FixtureProvider) Geocode(ctx context.Context, address string) (*models.Location, error) {
	if fp.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("fixture lookup interrupted: %w", ctx.Err())
		case <-fp.clock.After(fp.delay):
		}
	}

	loc, ok := fp.table[address]
	if !ok {
		fp.log.DebugContext(ctx, "Fixture table has no entry", "address", address)
		return nil, ErrFixtureMiss
	}

	return &loc, nil
}
