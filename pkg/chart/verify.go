package chart

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/validation"
)

// Names the DaemonSet must keep stable; the pipeline and the config
// loader depend on them.
const (
	ContainerName   = "general-healthcheck"
	PortName        = "http"
	ProbePath       = "/"
	ConfigMapName   = "general-healthcheck-conf"
	ConfigMountPath = "/config"
)

// Verify checks a rendered manifest against the chart's invariants and
// returns every violation found.
func Verify(m *Manifest) error {
	ds, err := m.DaemonSet()
	if err != nil {
		return err
	}

	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	name := ds.Name
	if msgs := validation.IsDNS1123Label(name); len(msgs) > 0 {
		fail("daemonset name %q: %s", name, strings.Join(msgs, "; "))
	}
	if name != m.Helpers.Fullname() {
		fail("daemonset name %q, want fullname %q", name, m.Helpers.Fullname())
	}
	if !maps.Equal(ds.Labels, m.Helpers.Labels()) {
		fail("daemonset labels %v, want %v", ds.Labels, m.Helpers.Labels())
	}

	if ds.Spec.Selector == nil {
		fail("daemonset has no selector")
	} else {
		if !maps.Equal(ds.Spec.Selector.MatchLabels, ds.Spec.Template.Labels) {
			fail("selector %v does not equal pod labels %v", ds.Spec.Selector.MatchLabels, ds.Spec.Template.Labels)
		}
		if !maps.Equal(ds.Spec.Selector.MatchLabels, m.Helpers.SelectorLabels()) {
			fail("selector %v, want %v", ds.Spec.Selector.MatchLabels, m.Helpers.SelectorLabels())
		}
	}

	pod := ds.Spec.Template.Spec
	if pod.ServiceAccountName != m.Helpers.ServiceAccountName() {
		fail("service account %q, want %q", pod.ServiceAccountName, m.Helpers.ServiceAccountName())
	}

	container := findContainer(pod.Containers, ContainerName)
	if container == nil {
		fail("no container named %q", ContainerName)
		return errors.Join(errs...)
	}
	if len(pod.Containers) != 1 {
		fail("pod has %d containers, want 1", len(pod.Containers))
	}

	if !hasPort(container, PortName) {
		fail("container has no port named %q", PortName)
	}
	for probeName, probe := range map[string]*corev1.Probe{
		"liveness":  container.LivenessProbe,
		"readiness": container.ReadinessProbe,
	} {
		if err := checkProbe(probe); err != nil {
			fail("%s probe: %v", probeName, err)
		}
	}

	if !mountsConfig(pod, container) {
		fail("configmap %q is not mounted at %s", ConfigMapName, ConfigMountPath)
	}

	return errors.Join(errs...)
}

func findContainer(containers []corev1.Container, name string) *corev1.Container {
	for i := range containers {
		if containers[i].Name == name {
			return &containers[i]
		}
	}
	return nil
}

func hasPort(c *corev1.Container, name string) bool {
	for _, p := range c.Ports {
		if p.Name == name && p.ContainerPort > 0 {
			return true
		}
	}
	return false
}

func checkProbe(p *corev1.Probe) error {
	if p == nil || p.HTTPGet == nil {
		return errors.New("missing httpGet")
	}
	if p.HTTPGet.Path != ProbePath {
		return fmt.Errorf("path %q, want %q", p.HTTPGet.Path, ProbePath)
	}
	if p.HTTPGet.Port.String() != PortName {
		return fmt.Errorf("port %q, want %q", p.HTTPGet.Port.String(), PortName)
	}
	return nil
}

func mountsConfig(pod corev1.PodSpec, c *corev1.Container) bool {
	var volume string
	for _, v := range pod.Volumes {
		if v.ConfigMap != nil && v.ConfigMap.Name == ConfigMapName {
			volume = v.Name
			break
		}
	}
	if volume == "" {
		return false
	}
	for _, mount := range c.VolumeMounts {
		if mount.Name == volume && mount.MountPath == ConfigMountPath {
			return true
		}
	}
	return false
}
