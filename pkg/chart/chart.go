package chart

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"plus-monitoring/general-healthcheck/deploy"

	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/chartutil"
	"helm.sh/helm/v3/pkg/engine"
	"helm.sh/helm/v3/pkg/strvals"
)

// DefaultNamespace is where the pipeline installs the release.
const DefaultNamespace = "plus-monitoring"

// RenderOptions selects the release and overrides for Render.
type RenderOptions struct {
	// ReleaseName defaults to the chart name.
	ReleaseName string

	// Namespace defaults to DefaultNamespace.
	Namespace string

	// Values are merged over the chart's values.yaml.
	Values map[string]any

	// Set holds helm --set style overrides, applied after Values.
	Set []string
}

// Load reads the chart embedded in the binary.
func Load() (*chart.Chart, error) {
	return LoadFS(deploy.Chart, deploy.ChartDir)
}

// LoadFS reads a chart rooted at dir in fsys.
func LoadFS(fsys fs.FS, dir string) (*chart.Chart, error) {
	var files []*loader.BufferedFile

	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		files = append(files, &loader.BufferedFile{
			Name: strings.TrimPrefix(p, dir+"/"),
			Data: data,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read chart %s: %w", dir, err)
	}

	ch, err := loader.LoadFiles(files)
	if err != nil {
		return nil, fmt.Errorf("failed to load chart %s: %w", dir, err)
	}
	return ch, nil
}

// Render renders the embedded chart.
func Render(opts RenderOptions) (*Manifest, error) {
	ch, err := Load()
	if err != nil {
		return nil, err
	}
	return RenderChart(ch, opts)
}

// RenderChart renders ch the way helm template does: chart defaults are
// coalesced with the overrides and the built-in .Release, .Chart and
// .Capabilities objects are added.
func RenderChart(ch *chart.Chart, opts RenderOptions) (*Manifest, error) {
	if opts.ReleaseName == "" {
		opts.ReleaseName = ch.Name()
	}
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}

	overrides, err := MergeOverrides(opts.Values, opts.Set)
	if err != nil {
		return nil, err
	}

	releaseOptions := chartutil.ReleaseOptions{
		Name:      opts.ReleaseName,
		Namespace: opts.Namespace,
		Revision:  1,
		IsInstall: true,
	}

	renderValues, err := chartutil.ToRenderValues(ch, overrides, releaseOptions, chartutil.DefaultCapabilities.Copy())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare values: %w", err)
	}

	rendered, err := engine.Render(ch, renderValues)
	if err != nil {
		return nil, fmt.Errorf("failed to render templates: %w", err)
	}

	values, err := renderValues.Table("Values")
	if err != nil {
		return nil, fmt.Errorf("failed to read coalesced values: %w", err)
	}

	m := &Manifest{
		Release:   opts.ReleaseName,
		Namespace: opts.Namespace,
		Files:     make(map[string]string),
		Helpers:   HelpersFor(ch, opts.ReleaseName, values),
	}
	for name, content := range rendered {
		if path.Base(name) == "NOTES.txt" || strings.HasPrefix(path.Base(name), "_") {
			continue
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		m.Files[name] = content
	}
	return m, nil
}

// MergeOverrides applies --set style assignments on top of a copy of values.
func MergeOverrides(values map[string]any, set []string) (map[string]any, error) {
	merged := make(map[string]any, len(values))
	for k, v := range values {
		merged[k] = v
	}
	for _, s := range set {
		if err := strvals.ParseInto(s, merged); err != nil {
			return nil, fmt.Errorf("invalid --set %q: %w", s, err)
		}
	}
	return merged, nil
}
