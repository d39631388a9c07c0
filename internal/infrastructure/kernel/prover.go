package kernel

import (
	"context"
	"sync"

	"github.com/tdex-network/notewallet/internal/core/ports"
	"github.com/tdex-network/notewallet/pkg/wallet"
	"github.com/tdex-network/notewallet/pkg/worker"
	"golang.org/x/sync/errgroup"
)

type tagProver struct {
	runner      *worker.Runner
	concurrency int
}

// NewTagProver returns a prover generating every tag proof on its own
// worker of the given runner, running at most concurrency of them at once.
func NewTagProver(runner *worker.Runner, concurrency int) ports.TagProver {
	if concurrency <= 0 {
		concurrency = DefaultWorkers()
	}
	return &tagProver{runner, concurrency}
}

func (p *tagProver) ProveTags(
	ctx context.Context, inputs []ports.TagProofInput,
) ([]ports.TagProof, map[string]error) {
	proofs := make([]*ports.TagProof, len(inputs))
	errs := make(map[string]error)
	lock := &sync.Mutex{}

	eg := &errgroup.Group{}
	eg.SetLimit(p.concurrency)
	for i := range inputs {
		i := i
		in := inputs[i]
		eg.Go(func() error {
			res, err := p.runner.Run(ctx, func(context.Context) (interface{}, error) {
				return wallet.ProveTag(
					in.ViewKey, in.Tag, in.Record.ID,
					in.Record.NonceX, in.Record.NonceY, in.Record.OwnerX,
				)
			})
			if err != nil {
				lock.Lock()
				errs[in.Record.Key()] = err
				lock.Unlock()
				return nil
			}
			proofs[i] = &ports.TagProof{
				RecordKey: in.Record.Key(),
				RecordID:  in.Record.ID,
				Tag:       in.Tag,
				TagIndex:  in.TagIndex,
				Proof:     res.(string),
			}
			return nil
		})
	}
	// nolint
	eg.Wait()

	result := make([]ports.TagProof, 0, len(proofs))
	for _, p := range proofs {
		if p != nil {
			result = append(result, *p)
		}
	}
	return result, errs
}
