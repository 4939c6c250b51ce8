package ipowner

import (
	"fmt"

	"github.com/telekom/das-schiff-network-topology/pkg/layer2"
	"github.com/telekom/das-schiff-network-topology/pkg/layer3"
	"github.com/telekom/das-schiff-network-topology/pkg/monitoring"
	"golang.org/x/exp/slices"
)

// Candidate is a claim that took part in an election.
type Candidate struct {
	Claim Claim `json:"claim"`
	// Reason explains why the candidate lost; empty for the winner.
	Reason string `json:"reason,omitempty"`
}

// Election is the outcome for one virtual address group within one broadcast domain.
type Election struct {
	Protocol   Protocol    `json:"protocol"`
	GroupID    int         `json:"groupId"`
	Winner     Claim       `json:"winner"`
	Candidates []Candidate `json:"candidates"`
}

// better orders claims by priority, then source address, then interface.
func better(a, b *Claim) int {
	if a.Priority != b.Priority {
		if a.Priority > b.Priority {
			return -1
		}
		return 1
	}
	if c := b.Source.Compare(a.Source); c != 0 {
		return c
	}
	return a.Interface.Compare(b.Interface)
}

func lossReason(winner, loser *Claim) string {
	switch {
	case loser.Priority < winner.Priority:
		return fmt.Sprintf("priority %d lower than %d", loser.Priority, winner.Priority)
	case loser.Source.Compare(winner.Source) < 0:
		return fmt.Sprintf("equal priority, source address %s lower than %s", addrString(loser), addrString(winner))
	default:
		return fmt.Sprintf("equal priority and source address, interface %s ordered after %s", loser.Interface, winner.Interface)
	}
}

func addrString(c *Claim) string {
	if !c.Source.IsValid() {
		return "<none>"
	}
	return c.Source.String()
}

// elect splits the claims of one group by broadcast domain and elects one
// winner per partition.
func elect(claims []Claim, adjacencies layer3.Adjacencies) []Election {
	b := layer2.NewBuilder()
	for i := range claims {
		b.AddNode(layer2.FromID(claims[i].Interface))
		for j := 0; j < i; j++ {
			if adjacencies.InSameBroadcastDomain(claims[i].Interface, claims[j].Interface) {
				b.AddEdge(layer2.NewEdge(layer2.FromID(claims[i].Interface), layer2.FromID(claims[j].Interface)))
			}
		}
	}
	domains := b.Build()

	partitions := map[layer2.Node][]Claim{}
	var order []layer2.Node
	for _, c := range claims {
		r, _ := domains.Representative(layer2.FromID(c.Interface))
		if _, ok := partitions[r]; !ok {
			order = append(order, r)
		}
		partitions[r] = append(partitions[r], c)
	}

	elections := make([]Election, 0, len(order))
	for _, r := range order {
		members := partitions[r]
		slices.SortFunc(members, func(a, b Claim) int { return better(&a, &b) })
		winner := members[0]
		e := Election{Protocol: winner.Protocol, GroupID: winner.GroupID, Winner: winner}
		for i := range members {
			candidate := Candidate{Claim: members[i]}
			if i > 0 {
				candidate.Reason = lossReason(&winner, &members[i])
			}
			e.Candidates = append(e.Candidates, candidate)
		}
		monitoring.RecordElection(string(winner.Protocol))
		elections = append(elections, e)
	}
	return elections
}
