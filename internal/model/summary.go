package model

import (
	"fmt"
	"strings"

	"github.com/born-ml/cifarnet/internal/nn"
)

// LayerInfo describes one row of the network summary.
type LayerInfo struct {
	Type   string
	Output []int // batch dimension is -1
	Params int
}

// Layers lists the network's stages with output shapes derived from the
// layer geometry, so no forward pass is needed.
func (n *Net) Layers() []LayerInfo {
	side := InputSize
	var rows []LayerInfo
	add := func(kind string, out []int, params int) {
		rows = append(rows, LayerInfo{
			Type:   fmt.Sprintf("%s-%d", kind, len(rows)+1),
			Output: append([]int{-1}, out...),
			Params: params,
		})
	}

	side = n.conv1.OutputSize(side)
	add("Conv2D", []int{conv1Out, side, side}, nn.CountParameters(n.conv1.Parameters()))
	add("MaxPool2D", []int{conv1Out, n.pool.OutputSize(side), n.pool.OutputSize(side)}, 0)
	side = n.pool.OutputSize(side)

	side = n.conv2.OutputSize(side)
	add("Conv2D", []int{conv2Out, side, side}, nn.CountParameters(n.conv2.Parameters()))
	add("MaxPool2D", []int{conv2Out, n.pool.OutputSize(side), n.pool.OutputSize(side)}, 0)

	add("Linear", []int{fc1Out}, nn.CountParameters(n.fc1.Parameters()))
	add("Linear", []int{fc2Out}, nn.CountParameters(n.fc2.Parameters()))
	add("Linear", []int{NumClasses}, nn.CountParameters(n.fc3.Parameters()))
	return rows
}

// Summary renders the layer table with output shapes and parameter counts.
func (n *Net) Summary() string {
	var b strings.Builder
	rule := strings.Repeat("-", 64)
	double := strings.Repeat("=", 64)

	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "%20s  %25s %15s\n", "Layer (type)", "Output Shape", "Param #")
	fmt.Fprintln(&b, double)
	total := 0
	for _, l := range n.Layers() {
		fmt.Fprintf(&b, "%20s  %25s %15s\n", l.Type, formatShape(l.Output), groupDigits(l.Params))
		total += l.Params
	}
	fmt.Fprintln(&b, double)
	fmt.Fprintf(&b, "Total params: %s\n", groupDigits(total))
	fmt.Fprintf(&b, "Trainable params: %s\n", groupDigits(total))
	fmt.Fprintln(&b, "Non-trainable params: 0")
	fmt.Fprintln(&b, rule)
	return b.String()
}

func formatShape(dims []int) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = fmt.Sprint(d)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// groupDigits formats n with comma thousands separators.
func groupDigits(n int) string {
	s := fmt.Sprint(n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
