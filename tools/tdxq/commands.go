// Copyright 2025 Canvas Technologies, Inc. All rights reserved
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux
// +build linux

package main

import (
	"fmt"

	"github.com/canvas-technologies/tdxaux/config"
	"github.com/canvas-technologies/tdxaux/device"
	"github.com/canvas-technologies/tdxaux/query"
	"github.com/canvas-technologies/tdxaux/tdcall"
	"github.com/canvas-technologies/tdxaux/tdlog"
)

const defaultDevicePath = device.Path

// client is the operation surface shared by the device transport and the
// native query service.
type client interface {
	query.FieldReader
	VPInfo() (*query.VPInfoResult, error)
}

// newClient picks the transport. The returned closer is a no-op for the
// native transport.
func newClient(cfg config.Config, transport, devicePath string) (client, func() error, error) {
	useDevice := transport == transportDevice ||
		(transport == transportAuto && device.Present())

	if useDevice {
		dev, err := device.OpenPath(devicePath)
		if err != nil {
			return nil, nil, err
		}

		return dev, dev.Close, nil
	}

	tdlog.Debug("Guest device not used, issuing TDCALL directly")

	inv, err := tdcall.NewNative()
	if err != nil {
		return nil, nil, err
	}

	svc := query.NewService(inv, cfg)

	return svc, func() error { return nil }, nil
}

func vpinfoCmd(cfg config.Config, transport, devicePath string) error {
	cl, closer, err := newClient(cfg, transport, devicePath)
	if err != nil {
		return err
	}
	defer closer()

	info, err := cl.VPInfo()
	if err != nil {
		return err
	}

	fmt.Printf("ATTRIBUTES=0x%016x\n", info.Attributes)

	if cfg.VPInfoLayout >= config.LayoutV2 {
		fmt.Printf("XFAM=0x%016x\n", info.XFAM)
		fmt.Printf("GPA_WIDTH=%d\n", info.GPAWidth)
	}

	fmt.Printf("status=%d\n", info.Status)

	return nil
}

func fieldCmd(cfg config.Config, transport, devicePath string, id int64) error {
	cl, closer, err := newClient(cfg, transport, devicePath)
	if err != nil {
		return err
	}
	defer closer()

	res, err := cl.ReadField(id)
	if err != nil {
		return err
	}

	printField(res)

	return nil
}

func walkCmd(cfg config.Config, transport, devicePath string) error {
	cl, closer, err := newClient(cfg, transport, devicePath)
	if err != nil {
		return err
	}
	defer closer()

	walker := query.NewWalker(cl, cfg.EndOfWalkStatus, cfg.MaxWalkSteps)

	count := 0

	for {
		res, ok, err := walker.Next()
		if err != nil {
			return err
		}

		if !ok {
			break
		}

		printField(res)
		count++
	}

	if status := walker.Status(); status != 0 {
		fmt.Printf("%d fields, walk ended with status=%d\n", count, status)
	} else {
		fmt.Printf("%d fields\n", count)
	}

	return nil
}

func printField(res *query.FieldResult) {
	fmt.Printf("field=%d value=0x%016x next=%d status=%d\n",
		res.FieldID, res.Value, res.NextID, res.Status)
}
