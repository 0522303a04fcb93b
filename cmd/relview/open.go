package main

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/ha1tch/relgraph/pkg/graphdoc"
	"github.com/ha1tch/relgraph/pkg/render"
)

// systemOpen hands a file or URL to the desktop's default handler.
func systemOpen(target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", target)
	default: // linux, etc
		cmd = exec.Command("xdg-open", target)
	}
	return cmd.Start()
}

// navigate opens the detail page of a clicked paper.
func (v *Viewer) navigate(id string) {
	url := v.cfg.DetailURL(id)
	v.log.Info("open paper", zap.String("id", id), zap.String("url", url))
	if err := v.open(url); err != nil {
		v.showMessage("Failed to open browser: "+err.Error(), MsgError)
		return
	}
	v.showMessage("Opened "+url, MsgInfo)
}

// renderView renders what is on screen to a temporary file and opens it
// with the system viewer.
func (v *Viewer) renderView() {
	if v.doc == nil {
		v.showMessage("Nothing to render yet", MsgWarning)
		return
	}

	useNative := v.cfg.Render.Renderer == "native"
	ext := "." + v.cfg.Render.FileType
	if !useNative {
		if _, err := exec.LookPath("dot"); err != nil {
			v.showMessage("Graphviz not found, using native renderer", MsgInfo)
			useNative = true
		}
	}

	tmpFile, err := os.CreateTemp("", "relgraph-*"+ext)
	if err != nil {
		v.showMessage("Failed to create temp file", MsgError)
		return
	}
	tmpPath := tmpFile.Name()

	norm, _ := graphdoc.Normalize(v.doc)
	title := fmt.Sprintf("%d papers, %d relationships", len(norm.Nodes), len(norm.Edges))

	if useNative {
		w, h := v.eng.Size()
		opts := render.Options{
			Width:     int(w),
			Height:    int(h),
			Title:     title,
			Positions: v.eng.Positions(),
			Logger:    v.log,
		}
		if ext == ".svg" {
			_, err = tmpFile.WriteString(render.RenderSVG(v.doc, opts))
		} else {
			err = render.RenderPNG(v.doc, tmpFile, opts)
		}
		tmpFile.Close()
	} else {
		tmpFile.Close()
		cmd := exec.Command("dot", "-T"+strings.TrimPrefix(ext, "."), "-o", tmpPath)
		cmd.Stdin = strings.NewReader(graphdoc.GenerateDOT(norm, title))
		err = cmd.Run()
	}
	if err != nil {
		v.showMessage("Render failed: "+err.Error(), MsgError)
		os.Remove(tmpPath)
		return
	}

	if err := v.open(tmpPath); err != nil {
		v.showMessage("Failed to open viewer: "+err.Error(), MsgError)
		os.Remove(tmpPath)
		return
	}
	v.showMessage("Opened in viewer: "+tmpPath, MsgInfo)
}
