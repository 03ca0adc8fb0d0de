// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package backup

import (
	"context"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
)

// Mirror copies every blob in the source container to the target
// container under the same name.
type Mirror struct {
	Source          Store
	Target          Store
	SourceContainer string
	TargetContainer string
}

// Report summarises one mirror run.
type Report struct {
	// Total is the number of blobs in the source container.
	Total int `yaml:"total" json:"total"`

	// Copied is the number of blobs copied this run.
	Copied int `yaml:"copied" json:"copied"`
}

// Run copies all source blobs to the target. Blobs that already exist
// in the target are overwritten, so the target converges on the source
// even if earlier copies were interrupted.
func (m *Mirror) Run(ctx context.Context) (*Report, error) {
	names, err := m.Source.List(ctx, m.SourceContainer)
	if err != nil {
		return nil, errors.Trace(err)
	}
	report := &Report{Total: len(names)}
	for _, name := range names {
		if err := m.copy(ctx, name); err != nil {
			return report, errors.Trace(err)
		}
		report.Copied++
	}
	logger.Infof("mirrored %d of %d blobs from %q to %q",
		report.Copied, report.Total, m.SourceContainer, m.TargetContainer)
	return report, nil
}

func (m *Mirror) copy(ctx context.Context, name string) error {
	body, err := m.Source.Download(ctx, m.SourceContainer, name)
	if err != nil {
		return errors.Trace(err)
	}
	defer func() { _ = body.Close() }()
	return errors.Trace(m.Target.Upload(ctx, m.TargetContainer, name, body))
}

// Missing returns the names of source blobs absent from the target, in
// lexical order. An empty result means the backup is complete.
func (m *Mirror) Missing(ctx context.Context) ([]string, error) {
	sourceNames, err := m.Source.List(ctx, m.SourceContainer)
	if err != nil {
		return nil, errors.Trace(err)
	}
	targetNames, err := m.Target.List(ctx, m.TargetContainer)
	if err != nil {
		return nil, errors.Trace(err)
	}
	missing := set.NewStrings(sourceNames...).Difference(set.NewStrings(targetNames...))
	return missing.SortedValues(), nil
}
