// Copyright 2025 Canvas Technologies, Inc. All rights reserved
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package query offers the two metadata operations of a TDX guest: the
// virtual processor introspection call TDG.VP.INFO and the system field
// read TDG.SYS.RD, together with the walk protocol that enumerates the
// complete, module defined field set.
package query

import (
	"errors"

	"github.com/canvas-technologies/tdxaux/config"
	"github.com/canvas-technologies/tdxaux/tdcall"
	"github.com/canvas-technologies/tdxaux/tderror"
	"github.com/canvas-technologies/tdxaux/tdlog"
)

// Operations used for raising Errors of this package.
const (
	ErrOpVPInfo    tderror.Op = "vp info"
	ErrOpReadField tderror.Op = "read field"
)

// Errors which may be raised and wrapped in this package.
var (
	// ErrLeafNotSet is returned when the leaf number of the requested
	// operation is zero. It is raised before any module call.
	ErrLeafNotSet = errors.New("leaf number not configured")
)

// FirstField starts a field walk when passed to ReadField.
const FirstField int64 = -1

// NoMoreFields as the next id of a FieldResult ends a field walk.
const NoMoreFields int64 = -1

// VPInfoResult carries the TDG.VP.INFO output registers. The fields
// beyond Attributes are meaningful only with register layout v2 and a
// success status; the service copies registers through without
// interpreting them.
type VPInfoResult struct {
	Attributes uint64 `json:"attributes"`
	XFAM       uint64 `json:"xfam"`
	GPAWidth   uint64 `json:"gpa_width"`
	Status     int32  `json:"tdcall_status"`
}

// FieldResult carries the TDG.SYS.RD output registers for one field.
// FieldID is the id actually read, which may differ from the requested
// one at the start of a walk. NextID feeds the next ReadField call;
// NoMoreFields means the walk is complete. Value and the ids are only
// meaningful with a success status.
type FieldResult struct {
	FieldID int64  `json:"field_id_out"`
	NextID  int64  `json:"next_id"`
	Value   uint64 `json:"value"`
	Status  int32  `json:"tdcall_status"`
}

// FieldReader is the single step primitive of the field walk protocol.
// It is implemented by Service and by the guest device client.
type FieldReader interface {
	ReadField(id int64) (*FieldResult, error)
}

// Service maps typed metadata requests onto module calls. It holds no
// mutable state; concurrent use needs no locking.
type Service struct {
	inv tdcall.Invoker
	cfg config.Config
}

var _ FieldReader = &Service{}

// NewService returns a Service issuing calls through inv with the leaf
// numbers and protocol settings of cfg.
func NewService(inv tdcall.Invoker, cfg config.Config) *Service {
	return &Service{inv: inv, cfg: cfg}
}

// VPInfo performs TDG.VP.INFO and returns the virtual processor
// metadata of the calling VCPU.
//
// Register layout: RDX carries the attributes bitfield, R8 the extended
// feature mask and R9 the guest physical address width. The latter two
// are copied only with layout v2 configured.
func (s *Service) VPInfo() (*VPInfoResult, error) {
	if s.cfg.VPInfoLeaf == 0 {
		return nil, tderror.E(tderror.Query, ErrOpVPInfo, ErrLeafNotSet)
	}

	var args tdcall.Args

	status, err := s.inv.Call(s.cfg.VPInfoLeaf, &args)
	if err != nil {
		return nil, tderror.E(tderror.Query, ErrOpVPInfo, err)
	}

	tdlog.Debug("TDG.VP.INFO leaf %d: status %#x", s.cfg.VPInfoLeaf, status)

	res := &VPInfoResult{
		Attributes: args.RDX,
		Status:     int32(status),
	}

	if s.cfg.VPInfoLayout >= config.LayoutV2 {
		res.XFAM = args.R8
		res.GPAWidth = args.R9
	}

	return res, nil
}

// ReadField performs TDG.SYS.RD for one field id. Pass FirstField to
// read the first field of the enumeration order.
//
// Register layout: RCX carries the field id in and the field id actually
// read out, RDX the next id and R8 the field value.
//
// A nonzero status in the result is not an error; it is the module's
// verdict on this particular field and is handed to the caller together
// with whatever the output registers held.
func (s *Service) ReadField(id int64) (*FieldResult, error) {
	if s.cfg.SysRdLeaf == 0 {
		return nil, tderror.E(tderror.Query, ErrOpReadField, ErrLeafNotSet)
	}

	args := tdcall.Args{RCX: uint64(id)}

	status, err := s.inv.Call(s.cfg.SysRdLeaf, &args)
	if err != nil {
		return nil, tderror.E(tderror.Query, ErrOpReadField, err)
	}

	tdlog.Debug("TDG.SYS.RD leaf %d: field %#x status %#x", s.cfg.SysRdLeaf, id, status)

	return &FieldResult{
		FieldID: int64(args.RCX),
		NextID:  int64(args.RDX),
		Value:   args.R8,
		Status:  int32(status),
	}, nil
}
