package pyflow

// Copyright 2018 The go-python Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/go-python/gpython/py"

	"github.com/mbqc-systems/goflow/goflow"
	"github.com/mbqc-systems/goflow/libflow"
	"github.com/mbqc-systems/goflow/libflow/catalog"
)

var (
	LIB_VERSION = "v1.2026.1"
)

var (
	pyPatternType       = py.NewType("Pattern", "an open graph with a measurement spec and its solved flow")
	pyPatternStreamType = py.NewType("PatternStream", "goflow.PatternStream")
	pyCatalogType       = py.NewType("Catalog", "goflow.Catalog")
	pyWorkspaceType     = py.NewType("Workspace", "collects active session resources and catalogs")
)

func getPatternFromObj(obj py.Object) (p pyPattern, err error) {
	if obj.Type().Name != "Pattern" {
		err = py.ExceptionNewf(py.TypeError, "expected Pattern object (got %v)", obj.Type().Name)
		return
	}
	var attr py.Object
	attr, err = py.GetAttrString(obj, "_pattern")
	if err != nil {
		return
	}
	p = attr.(pyPattern)
	return
}

type pyPattern struct {
	*libflow.Pattern
}

func (p pyPattern) Type() *py.Type {
	return pyPatternType
}

func (p pyPattern) M__str__() (py.Object, error) {
	writer := strings.Builder{}
	p.WriteAsString(&writer, goflow.DefaultPrintOpts)
	return py.String(writer.String()), nil
}

func (p pyPattern) M__repr__() (py.Object, error) {
	return p.M__str__()
}

// Arg 1 (str): pattern expression, e.g. "0-1-2; i 0; o 2; 1:Y"
func py_NewPattern(module py.Object, args py.Tuple) (py.Object, error) {
	var expr string
	err := py.LoadTuple(args, []interface{}{&expr})
	if err != nil {
		return nil, err
	}
	p, err := libflow.NewPatternFromExpr(expr)
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}
	return py.Object(pyPattern{p}), nil
}

func py_Pattern_NumVerts(self py.Object, args py.Tuple) (py.Object, error) {
	p := self.(pyPattern)
	return py.Object(py.Int(p.VertexCount())), nil
}

func py_Pattern_Solve(self py.Object, args py.Tuple) (py.Object, error) {
	p := self.(pyPattern)
	kindLabel := "gflow"
	if len(args) > 0 {
		py.LoadTuple(args, []interface{}{&kindLabel})
	}
	kind, err := goflow.ParseFlowKind(kindLabel)
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "unknown flow kind %q", kindLabel)
	}
	found, err := p.Solve(kind)
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}
	if found {
		return py.True, nil
	}
	return py.False, nil
}

// Layers returns the solved measurement order as a tuple, or None.
func py_Pattern_Layers(self py.Object, args py.Tuple) (py.Object, error) {
	p := self.(pyPattern)
	F := p.Flow()
	if F == nil {
		return py.None, nil
	}
	layers := make(py.Tuple, len(F.Layers))
	for vi, l := range F.Layers {
		layers[vi] = py.Int(l)
	}
	return py.Object(layers), nil
}

// Correction returns the solved correction set of a vertex as a tuple.
func py_Pattern_Correction(self py.Object, args py.Tuple) (py.Object, error) {
	p := self.(pyPattern)
	vi, err := py.GetInt(args[0])
	if err != nil {
		return nil, err
	}
	F := p.Flow()
	if F == nil {
		return py.None, nil
	}
	g, ok := F.Corrections[int(vi)]
	if !ok {
		return py.None, nil
	}
	out := make(py.Tuple, 0, g.Count())
	g.ForEach(func(wi int) bool {
		out = append(out, py.Int(wi))
		return true
	})
	return py.Object(out), nil
}

func py_Pattern_Validate(self py.Object, args py.Tuple) (py.Object, error) {
	p := self.(pyPattern)
	vlist := p.Validate()
	out := make(py.Tuple, len(vlist))
	for i, v := range vlist {
		out[i] = py.String(v.String())
	}
	return py.Object(out), nil
}

func py_Pattern_Stream(self py.Object, args py.Tuple) (py.Object, error) {
	p := self.(pyPattern)
	next := goflow.StreamPattern(p.Pattern)
	return wrapPatternStream(next), nil
}

const (
	READ_ONLY    = 0x01
	CACHE_ABSENT = 0x04

	kWorkspaceAttr = "_Workspace"
)

type Workspace struct {
	CatalogCtx goflow.CatalogContext
}

func (ws *Workspace) Close() {
	ws.CatalogCtx.Close()
	<-ws.CatalogCtx.Done()
}

func (ws *Workspace) Type() *py.Type {
	return pyWorkspaceType
}

func py_GetWorkspace(module py.Object, args py.Tuple) (py.Object, error) {
	wsObj, _ := py.GetAttrString(module, kWorkspaceAttr)
	if wsObj == nil {
		ws := &Workspace{
			CatalogCtx: goflow.NewCatalogContext(),
		}
		wsObj = ws
		py.SetAttrString(module, kWorkspaceAttr, wsObj)
	}
	return wsObj, nil
}

func py_Workspace_CatalogExists(self py.Object, args py.Tuple) (py.Object, error) {
	_ = self.(*Workspace)

	var pathname string
	err := py.LoadTuple(args, []interface{}{&pathname})
	if err != nil {
		return nil, err
	}
	_, err = os.Stat(pathname)
	if os.IsNotExist(err) {
		return py.False, nil
	}
	return py.True, nil
}

func py_Workspace_OpenCatalog(self py.Object, args py.Tuple) (py.Object, error) {
	ws := self.(*Workspace)

	var pathname, kindLabel string
	var flags int32
	err := py.LoadTuple(args, []interface{}{&pathname, &flags, &kindLabel})
	if err != nil {
		return nil, err
	}

	kind, err := goflow.ParseFlowKind(kindLabel)
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "unknown flow kind %q", kindLabel)
	}
	opts := goflow.CatalogOpts{
		ReadOnly:    (flags & READ_ONLY) != 0,
		DbPathName:  pathname,
		Kind:        kind,
		CacheAbsent: (flags & CACHE_ABSENT) != 0,
	}

	cat, err := catalog.OpenCatalog(ws.CatalogCtx, opts)
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}

	pyCat := pyCatalog{cat}
	return py.Object(pyCat), nil
}

type pyCatalog struct {
	goflow.Catalog
}

func (cat pyCatalog) Type() *py.Type {
	return pyCatalogType
}

func py_Catalog_Close(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)
	if cat.Catalog != nil {
		cat.Close()
	}
	return py.None, nil
}

func py_Catalog_Select(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)
	sel := goflow.DefaultPatternSelector
	if len(args) > 0 {
		err := getPatternSelector(args[0], &sel)
		if err != nil {
			return nil, err
		}
	}

	next := goflow.SelectFromCatalog(cat, sel)
	return wrapPatternStream(next), nil
}

func py_Catalog_NumPatterns(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)

	Nv, err := py.GetInt(args[0])
	if err != nil {
		return nil, err
	}

	numPatterns := cat.NumPatterns(byte(Nv))
	return py.Int(numPatterns), nil
}

func py_Catalog_NumFlows(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)

	Nv, err := py.GetInt(args[0])
	if err != nil {
		return nil, err
	}

	numFlows := cat.NumFlows(byte(Nv))
	return py.Int(numFlows), nil
}

func py_PatternStream_Go(self py.Object, args py.Tuple) (py.Object, error) {
	stream := self.(patternStream)
	count := stream.PullAll()
	return py.Int(count), nil
}

type echoToWriter struct {
	stdout *os.File
	to     io.WriteCloser
}

func (echo *echoToWriter) Write(buf []byte) (int, error) {
	var (
		n   int
		err error
	)
	if echo.to == nil {
		n, err = echo.stdout.Write(buf)
	} else {
		n, err = echo.to.Write(buf)
	}
	return n, err
}

func (echo *echoToWriter) Close() error {
	if echo.to != nil {
		return echo.to.Close()
	}
	return nil
}

var gOutCount = int32(0)

// See lib/pyflow.py Print() docs
func py_PatternStream_Print(self py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	stream := self.(patternStream)
	var pathname string

	opts := goflow.DefaultPrintOpts

	py.LoadTuple(args, []interface{}{&opts.Label})
	if opts.Label == "" {
		py.LoadAttr(kwargs, "label", &opts.Label)
	}

	// TODO: move this to the Workspace obj so output counter is within the workspace (vs global)
	atomic.AddInt32(&gOutCount, 1)
	if opts.Label == "" {
		opts.Label = fmt.Sprintf("out[%d]", gOutCount)
	}

	py.LoadAttr(kwargs, "graph", &opts.Graph)
	py.LoadAttr(kwargs, "flow", &opts.Flow)
	py.LoadAttr(kwargs, "violations", &opts.Violations)
	py.LoadAttr(kwargs, "file", &pathname)

	writer := &echoToWriter{
		stdout: os.Stdout,
	}
	if len(pathname) > 0 {
		os.MkdirAll(filepath.Dir(pathname), 0700)

		file, err := os.OpenFile(string(pathname), os.O_TRUNC|os.O_WRONLY|os.O_CREATE, 0600)
		if err != nil {
			return nil, py.ExceptionNewf(py.FileNotFoundError, "%v", err)
		}
		writer.to = file
	}

	next := stream.Print(writer, opts)
	return wrapPatternStream(next), nil
}

type patternStream struct {
	*goflow.PatternStream
}

func (stream patternStream) Type() *py.Type {
	return pyPatternStreamType
}

func wrapPatternStream(stream *goflow.PatternStream) py.Object {
	return py.Object(patternStream{stream})
}

func py_PatternStream_Solve(self py.Object, args py.Tuple) (py.Object, error) {
	stream := self.(patternStream)
	kindLabel := "gflow"
	if len(args) > 0 {
		py.LoadTuple(args, []interface{}{&kindLabel})
	}
	kind, err := goflow.ParseFlowKind(kindLabel)
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "unknown flow kind %q", kindLabel)
	}
	next := stream.Solve(kind)
	return wrapPatternStream(next), nil
}

func py_PatternStream_AddTo(self py.Object, args py.Tuple) (py.Object, error) {
	stream := self.(patternStream)
	attr, err := py.GetAttrString(args[0], "_cat")
	if err != nil {
		return nil, err
	}
	cat := attr.(pyCatalog)
	if cat.IsReadOnly() {
		return nil, py.ExceptionNewf(py.PermissionError, "%v", errors.New("catalog is in read-only mode"))
	}

	next := stream.AddTo(cat, goflow.AddPatternOpts{})
	return wrapPatternStream(next), nil
}

func py_PatternStream_DropDupes(self py.Object, args py.Tuple) (py.Object, error) {
	stream := self.(patternStream)

	// Create a memory resident dedupe target that lives as long as the stream
	dupes := libflow.NewDropDupes(libflow.DropDupeOpts{})
	next := stream.AddTo(dupes, goflow.AddPatternOpts{})
	return wrapPatternStream(next), nil
}

func py_PatternStream_Select(self py.Object, args py.Tuple) (py.Object, error) {
	sel := goflow.DefaultPatternSelector
	err := getPatternSelector(args[0], &sel)
	if err != nil {
		return nil, err
	}
	stream := self.(patternStream)
	next := stream.SelectFromStream(sel)
	return wrapPatternStream(next), nil
}

func init() {

	/////////////////////////////////
	// Pattern
	{
		pyPatternType.Dict["NumVerts"] = py.MustNewMethod("NumVerts", py_Pattern_NumVerts, 0, "")
		pyPatternType.Dict["Solve"] = py.MustNewMethod("Solve", py_Pattern_Solve, 0, "runs the flow search of the given kind")
		pyPatternType.Dict["Layers"] = py.MustNewMethod("Layers", py_Pattern_Layers, 0, "")
		pyPatternType.Dict["Correction"] = py.MustNewMethod("Correction", py_Pattern_Correction, 0, "")
		pyPatternType.Dict["Validate"] = py.MustNewMethod("Validate", py_Pattern_Validate, 0, "")
		pyPatternType.Dict["Stream"] = py.MustNewMethod("Stream", py_Pattern_Stream, 0, "")
	}

	/////////////////////////////////
	// Catalog
	{
		pyCatalogType.Dict["Select"] = py.MustNewMethod("Select", py_Catalog_Select, 0, "")
		pyCatalogType.Dict["NumPatterns"] = py.MustNewMethod("NumPatterns", py_Catalog_NumPatterns, 0, "")
		pyCatalogType.Dict["NumFlows"] = py.MustNewMethod("NumFlows", py_Catalog_NumFlows, 0, "")
		pyCatalogType.Dict["Close"] = py.MustNewMethod("Close", py_Catalog_Close, 0, "")
	}

	/////////////////////////////////
	// Workspace
	{
		pyWorkspaceType.Dict["OpenCatalog"] = py.MustNewMethod("OpenCatalog", py_Workspace_OpenCatalog, 0, "")
		pyWorkspaceType.Dict["CatalogExists"] = py.MustNewMethod("CatalogExists", py_Workspace_CatalogExists, 0, "")
	}

	/////////////////////////////////
	// PatternStream
	{
		pyPatternStreamType.Dict["Go"] = py.MustNewMethod("Go", py_PatternStream_Go, 0, "counts the number of patterns output from the PatternStream")
		pyPatternStreamType.Dict["Print"] = py.MustNewMethod("Print", py_PatternStream_Print, 0, "prints each pattern from the PatternStream")
		pyPatternStreamType.Dict["Solve"] = py.MustNewMethod("Solve", py_PatternStream_Solve, 0, "")
		pyPatternStreamType.Dict["AddTo"] = py.MustNewMethod("AddTo", py_PatternStream_AddTo, 0, "")
		pyPatternStreamType.Dict["DropDupes"] = py.MustNewMethod("DropDupes", py_PatternStream_DropDupes, 0, "")
		pyPatternStreamType.Dict["Select"] = py.MustNewMethod("Select", py_PatternStream_Select, 0, "")
	}

	{
		methods := []*py.Method{
			py.MustNewMethod("NewPattern", py_NewPattern, 0, ""),
			py.MustNewMethod("GetWorkspace", py_GetWorkspace, 0, ""),
		}

		globals := py.StringDict{
			"LIB_VERSION": py.String(LIB_VERSION),
			"PY_VERSION":  py.String("v3.4.0"),
			"MAX_VTX":     py.Int(goflow.MaxSelectorVerts),
			"PLANE_XY":    py.Int(goflow.PPlaneXY),
			"PLANE_YZ":    py.Int(goflow.PPlaneYZ),
			"PLANE_XZ":    py.Int(goflow.PPlaneXZ),
			"PAULI_X":     py.Int(goflow.PPlaneX),
			"PAULI_Y":     py.Int(goflow.PPlaneY),
			"PAULI_Z":     py.Int(goflow.PPlaneZ),
		}

		py.RegisterModule(&py.ModuleImpl{
			Info: py.ModuleInfo{
				Name: "_pyflow",
				Doc:  "measurement pattern flow gpython module",
			},
			Methods: methods,
			Globals: globals,
			OnContextClosed: func(m *py.Module) {
				wsObj, _ := py.GetAttrString(m, kWorkspaceAttr)
				if wsObj != nil {
					wsObj.(*Workspace).Close()
				}
			},
		})

	}
}

func intAttr(obj py.Object, key string, min, max int64) int64 {
	attr, err := py.GetAttrString(obj, key)
	if err != nil {
		panic(err)
	}
	val, _ := py.GetInt(attr)
	intVal := int64(val)
	if intVal < min {
		intVal = min
	}
	if intVal > max {
		intVal = max
	}
	return intVal
}

func byteAttr(obj py.Object, attr string) byte {
	return byte(intAttr(obj, attr, 0, 255))
}

func exportPatternInfo(patternInfo py.Object) goflow.PatternInfo {
	info := goflow.PatternInfo{
		NumVerts:   byteAttr(patternInfo, "verts"),
		NumEdges:   byteAttr(patternInfo, "edges"),
		NumInputs:  byteAttr(patternInfo, "ins"),
		NumOutputs: byteAttr(patternInfo, "outs"),
		NumPauli:   byteAttr(patternInfo, "paulis"),
	}
	return info
}

func getPatternSelector(pattern_selector py.Object, sel *goflow.PatternSelector) error {

	info, err := py.GetAttrString(pattern_selector, "min")
	if err != nil {
		return err
	}
	sel.Min = exportPatternInfo(info)

	info, err = py.GetAttrString(pattern_selector, "max")
	if err != nil {
		return err
	}
	sel.Max = exportPatternInfo(info)

	if err = py.LoadAttr(pattern_selector, "require_flow", &sel.RequireFlow); err != nil {
		return err
	}

	if err = py.LoadAttr(pattern_selector, "require_absent", &sel.RequireAbsent); err != nil {
		return err
	}

	if sel.RequireFlow && sel.RequireAbsent {
		return py.ExceptionNewf(py.ValueError, "%v", errors.New("'require_flow' can't be used with 'require_absent'"))
	}

	return nil
}
