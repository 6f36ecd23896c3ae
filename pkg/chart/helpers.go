package chart

import (
	"fmt"
	"strings"

	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/chartutil"
)

const maxNameLength = 63

// Helpers mirrors the named templates of _helpers.tpl so rendered manifests
// can be checked against what the templates should have produced.
type Helpers struct {
	ChartName    string
	ChartVersion string
	AppVersion   string
	ReleaseName  string

	// ReleaseService is .Release.Service, "Helm" under helm.
	ReleaseService string

	NameOverride         string
	FullnameOverride     string
	ServiceAccountCreate bool
	ServiceAccount       string
}

// HelpersFor reads the override values that the helpers consult.
func HelpersFor(ch *chart.Chart, releaseName string, values map[string]any) Helpers {
	h := Helpers{
		ChartName:      ch.Metadata.Name,
		ChartVersion:   ch.Metadata.Version,
		AppVersion:     ch.Metadata.AppVersion,
		ReleaseName:    releaseName,
		ReleaseService: "Helm",
	}

	h.NameOverride, _ = values["nameOverride"].(string)
	h.FullnameOverride, _ = values["fullnameOverride"].(string)
	if sa := asMap(values["serviceAccount"]); sa != nil {
		h.ServiceAccountCreate, _ = sa["create"].(bool)
		h.ServiceAccount, _ = sa["name"].(string)
	}
	return h
}

func asMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case chartutil.Values:
		return m
	}
	return nil
}

// truncName truncates to 63 characters and strips every trailing dash,
// like the `regexReplaceAll "-+$"` in _helpers.tpl.
func truncName(s string) string {
	if len(s) > maxNameLength {
		s = s[:maxNameLength]
	}
	return strings.TrimRight(s, "-")
}

// Name is general-healthcheck.name.
func (h Helpers) Name() string {
	name := h.ChartName
	if h.NameOverride != "" {
		name = h.NameOverride
	}
	return truncName(name)
}

// Fullname is general-healthcheck.fullname.
func (h Helpers) Fullname() string {
	if h.FullnameOverride != "" {
		return truncName(h.FullnameOverride)
	}

	name := h.ChartName
	if h.NameOverride != "" {
		name = h.NameOverride
	}
	if strings.Contains(h.ReleaseName, name) {
		return truncName(h.ReleaseName)
	}
	return truncName(fmt.Sprintf("%s-%s", h.ReleaseName, name))
}

// ChartLabel is general-healthcheck.chart.
func (h Helpers) ChartLabel() string {
	label := fmt.Sprintf("%s-%s", h.ChartName, h.ChartVersion)
	return truncName(strings.ReplaceAll(label, "+", "_"))
}

// SelectorLabels is general-healthcheck.selectorLabels.
func (h Helpers) SelectorLabels() map[string]string {
	return map[string]string{
		"app.kubernetes.io/name":     h.Name(),
		"app.kubernetes.io/instance": h.ReleaseName,
	}
}

// Labels is general-healthcheck.labels.
func (h Helpers) Labels() map[string]string {
	labels := h.SelectorLabels()
	labels["helm.sh/chart"] = h.ChartLabel()
	if h.AppVersion != "" {
		labels["app.kubernetes.io/version"] = h.AppVersion
	}
	labels["app.kubernetes.io/managed-by"] = h.ReleaseService
	return labels
}

// ServiceAccountName is general-healthcheck.serviceAccountName.
func (h Helpers) ServiceAccountName() string {
	if h.ServiceAccountCreate {
		if h.ServiceAccount != "" {
			return h.ServiceAccount
		}
		return h.Fullname()
	}
	if h.ServiceAccount != "" {
		return h.ServiceAccount
	}
	return "default"
}
