package shmchan

import (
	"github.com/behrlich/shmchan/internal/constants"
	"github.com/behrlich/shmchan/internal/layout"
)

// Re-exported sizing and timing constants.
const (
	DefaultCapacity     = constants.DefaultCapacity
	MinCapacity         = constants.MinCapacity
	IndefiniteWaitSlice = constants.IndefiniteWaitSlice
	Align               = layout.Align
	DescriptorSize      = layout.DescriptorSize
	RingHeaderSize      = layout.RingHeaderSize
)
