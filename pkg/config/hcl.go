// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".hcl")
}

// 📝 Parse parses the config from HCL. The env object exposes the process
// environment, so paths can be written as env.HOME.
func (p *HCLParser) Parse(ctx context.Context, data []byte, cfg *Config) error {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "metacopy.hcl")
	if diags.HasErrors() {
		return errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": environment(),
		},
	}

	// Define HCL schema
	type hclConfig struct {
		InputDir      *string `hcl:"input_dir,optional"`
		InputPattern  *string `hcl:"input_pattern,optional"`
		WorkspaceRoot *string `hcl:"workspace_root,optional"`
		OutputDir     *string `hcl:"output_dir,optional"`
		ProgressEvery *int    `hcl:"progress_every,optional"`
		Workers       *int    `hcl:"workers,optional"`
		Snapshot      *string `hcl:"snapshot,optional"`
	}

	// Decode HCL
	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Merge present values
	setString(&cfg.InputDir, hclCfg.InputDir)
	setString(&cfg.InputPattern, hclCfg.InputPattern)
	setString(&cfg.WorkspaceRoot, hclCfg.WorkspaceRoot)
	setString(&cfg.OutputDir, hclCfg.OutputDir)
	setString(&cfg.Snapshot, hclCfg.Snapshot)
	if hclCfg.ProgressEvery != nil {
		cfg.ProgressEvery = *hclCfg.ProgressEvery
	}
	if hclCfg.Workers != nil {
		cfg.Workers = *hclCfg.Workers
	}

	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func environment() cty.Value {
	vars := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			vars[k] = cty.StringVal(v)
		}
	}
	if len(vars) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(vars)
}
