package server

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	i18n "github.com/louisbranch/rentpressure/internal/platform/i18n/catalog"
	"github.com/louisbranch/rentpressure/internal/services/story/catalog"
	"github.com/louisbranch/rentpressure/internal/services/story/surface"
)

// pageAct is one scroll section of the story and the surface it hosts.
type pageAct struct {
	Number  int
	Title   string
	Surface surface.Key
}

// pageView is everything the page shell renders. The browser renderer
// fills the surfaces from story.command frames.
type pageView struct {
	Lang        string
	Title       string
	NoScript    string
	Acts        []pageAct
	Cities      []catalog.TimelapseCity
	DefaultCity string
	Metrics     [][2]string
	ViewModes   [][2]string
	Playback    string
}

var actSurfaces = []surface.Key{
	surface.Act1Map,
	surface.AffordabilityChart,
	surface.Act3Map,
	surface.DensityChart,
	surface.Act5Map,
	surface.Page,
}

var actTitleKeys = []string{
	"story.page.act.1",
	"story.page.act.2",
	"story.page.act.3",
	"story.page.act.4",
	"story.page.act.5",
	"story.page.act.6",
}

func newPageView(bundle *i18n.Bundle, locale string, c *catalog.Catalog) pageView {
	msg := func(key string) string {
		value, _ := bundle.Message(locale, key)
		return value
	}
	view := pageView{
		Lang:        locale,
		Title:       msg("story.page.title"),
		NoScript:    msg("story.page.noscript"),
		Cities:      c.TimelapseCities,
		DefaultCity: c.DefaultTimelapse,
		Metrics: [][2]string{
			{"private", msg("story.page.metric.private")},
			{"entire", msg("story.page.metric.entire")},
		},
		ViewModes: [][2]string{
			{"dots", msg("story.page.view.dots")},
			{"heatmap", msg("story.page.view.heatmap")},
		},
		Playback: msg("story.page.playback"),
	}
	for i, key := range actTitleKeys {
		view.Acts = append(view.Acts, pageAct{Number: i + 1, Title: msg(key), Surface: actSurfaces[i]})
	}
	return view
}

// storyPage renders the page shell: one section per act, the control
// widgets and the progress dots.
func storyPage(view pageView) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		pw := &pageWriter{w: w}
		pw.raw("<!DOCTYPE html>\n<html lang=\"")
		pw.text(view.Lang)
		pw.raw("\"><head><meta charset=\"utf-8\"><meta name=\"viewport\" content=\"width=device-width, initial-scale=1\"><title>")
		pw.text(view.Title)
		pw.raw("</title></head><body data-ws=\"/ws\">")
		pw.raw("<noscript>")
		pw.text(view.NoScript)
		pw.raw("</noscript><nav id=\"progress\">")
		for _, act := range view.Acts {
			pw.raw("<button class=\"progress-dot\" data-act=\"")
			pw.text(strconv.Itoa(act.Number))
			pw.raw("\" title=\"")
			pw.text(act.Title)
			pw.raw("\"></button>")
		}
		pw.raw("</nav><main>")
		for _, act := range view.Acts {
			pw.raw("<section class=\"act\" data-act=\"")
			pw.text(strconv.Itoa(act.Number))
			pw.raw("\"><h2>")
			pw.text(act.Title)
			pw.raw("</h2>")
			switch act.Surface {
			case surface.AffordabilityChart:
				pw.options("metric", view.Metrics, "private")
			case surface.Act3Map:
				pw.options("view-mode", view.ViewModes, "dots")
			case surface.DensityChart:
				pw.surface(surface.HousingGauge)
			case surface.Act5Map:
				cities := make([][2]string, len(view.Cities))
				for i, city := range view.Cities {
					cities[i] = [2]string{city.ID, city.Name}
				}
				pw.options("timelapse-city", cities, view.DefaultCity)
				pw.raw("<input type=\"range\" id=\"timelapse-year\"><button id=\"timelapse-play\">")
				pw.text(view.Playback)
				pw.raw("</button>")
			}
			if act.Surface != surface.Page {
				pw.surface(act.Surface)
			}
			pw.raw("</section>")
		}
		pw.raw("</main></body></html>")
		return pw.err
	})
}

// pageWriter keeps the first write error so the component body stays flat.
type pageWriter struct {
	w   io.Writer
	err error
}

func (p *pageWriter) raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func (p *pageWriter) text(s string) {
	p.raw(templ.EscapeString(s))
}

func (p *pageWriter) surface(key surface.Key) {
	p.raw(fmt.Sprintf("<div class=\"surface\" id=\"%s\" data-surface=\"%s\"></div>", templ.EscapeString(string(key)), templ.EscapeString(string(key))))
}

func (p *pageWriter) options(name string, values [][2]string, selected string) {
	p.raw("<select id=\"")
	p.text(name)
	p.raw("\">")
	for _, value := range values {
		p.raw("<option value=\"")
		p.text(value[0])
		p.raw("\"")
		if value[0] == selected {
			p.raw(" selected")
		}
		p.raw(">")
		p.text(value[1])
		p.raw("</option>")
	}
	p.raw("</select>")
}
