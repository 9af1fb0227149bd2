package listing

import (
	"github.com/apex/log"
)

// Partitioned holds keyword search hits split per report type.
type Partitioned struct {
	Lost  []Report
	Found []Report
}

func (p Partitioned) Of(t ReportType) []Report {
	if t == Found {
		return p.Found
	}
	return p.Lost
}

// Partition splits a mixed result set by its type discriminator and keeps only
// the types the filter wants. Hits with an unknown discriminator are dropped.
func Partition(results []TypedReport, filter ActiveFilter) Partitioned {
	var p Partitioned
	for _, r := range results {
		t, err := ReportTypeFromDiscriminator(r.Type)
		if err != nil {
			log.Warnf("Dropping search hit %q: %v", r.ID, err)
			continue
		}
		if !filter.Relevant(t) {
			continue
		}
		if t == Lost {
			p.Lost = append(p.Lost, r.Report)
		} else {
			p.Found = append(p.Found, r.Report)
		}
	}
	return p
}
