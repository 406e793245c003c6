package db

import (
	"github.com/gocql/gocql"
	"go.uber.org/atomic"
)

// localDCPolicy routes queries to a single data center. The data center is either configured or
// taken from the first host the driver reports.
type localDCPolicy struct {
	child    atomic.Value
	dcPinned atomic.Bool
}

type childPolicy struct {
	gocql.HostSelectionPolicy
}

// NewHostSelectionPolicy returns a token aware policy over a local data center policy. An empty
// localDC infers it from the contact points.
func NewHostSelectionPolicy(localDC string) gocql.HostSelectionPolicy {
	return gocql.TokenAwareHostPolicy(newLocalDCPolicy(localDC), gocql.ShuffleReplicas())
}

func newLocalDCPolicy(localDC string) *localDCPolicy {
	p := &localDCPolicy{}
	if localDC != "" {
		p.child.Store(childPolicy{gocql.DCAwareRoundRobinPolicy(localDC)})
		p.dcPinned.Store(true)
	} else {
		p.child.Store(childPolicy{gocql.RoundRobinHostPolicy()})
	}
	return p
}

func (p *localDCPolicy) policy() gocql.HostSelectionPolicy {
	return p.child.Load().(childPolicy).HostSelectionPolicy
}

func (p *localDCPolicy) AddHost(host *gocql.HostInfo) {
	if p.dcPinned.CompareAndSwap(false, true) {
		dcPolicy := gocql.DCAwareRoundRobinPolicy(host.DataCenter())
		p.child.Store(childPolicy{dcPolicy})
		dcPolicy.AddHost(host)
		return
	}
	p.policy().AddHost(host)
}

func (p *localDCPolicy) RemoveHost(host *gocql.HostInfo) {
	p.policy().RemoveHost(host)
}

func (p *localDCPolicy) HostUp(host *gocql.HostInfo) {
	p.policy().HostUp(host)
}

func (p *localDCPolicy) HostDown(host *gocql.HostInfo) {
	p.policy().HostDown(host)
}

func (p *localDCPolicy) SetPartitioner(partitioner string) {
	p.policy().SetPartitioner(partitioner)
}

func (p *localDCPolicy) KeyspaceChanged(e gocql.KeyspaceUpdateEvent) {
	p.policy().KeyspaceChanged(e)
}

// Init is not called by the token aware parent on its fallback
func (p *localDCPolicy) Init(*gocql.Session) {
}

func (p *localDCPolicy) IsLocal(host *gocql.HostInfo) bool {
	return p.policy().IsLocal(host)
}

func (p *localDCPolicy) Pick(query gocql.ExecutableQuery) gocql.NextHost {
	return p.policy().Pick(query)
}
