// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package cot

import (
	"encoding/xml"
	"strings"
)

const xmlHeader = `<?xml version="1.0" standalone="yes"?>` + "\n"

// String serializes the event. Element order, attribute order and line
// breaks are fixed; some consumers read these documents positionally.
func (e *Event) String() string {
	var b strings.Builder
	b.Grow(512 + len(e.Image))

	b.WriteString(xmlHeader)
	b.WriteString("<event\n")
	b.WriteString("  how=\"" + e.Kind.How() + "\"\n")
	b.WriteString("  stale=\"" + e.Window.Stale.UTC().Format(TimeFormat) + "\"")
	b.WriteString(" start=\"" + e.Window.Start.UTC().Format(TimeFormat) + "\"")
	b.WriteString(" time=\"" + e.Window.Time.UTC().Format(TimeFormat) + "\"\n")
	b.WriteString("type=\"" + e.Kind.Type() + "\"\n")
	b.WriteString("uid=\"" + escape(e.UID) + "\"\n")
	b.WriteString("version=\"2.0\">\n")

	switch e.Kind {
	case FriendlyTrack:
		b.WriteString("<detail>\n")
		writeTrack(&b, e.Track)
		b.WriteString("<status battery=\"59\" health=\"good\" />\n")
		b.WriteString("<goal lat=\"37.3264235\" lon=\"-75.29052422\"/>\n")
		b.WriteString("<camera hfov=\"120\" rel_az=\"0\"/>\n")
		b.WriteString("</detail>\n")
		writePoint(&b, e.Point)
	case UnknownDetection:
		writePoint(&b, e.Point)
		b.WriteString("<detail>\n")
		writeTrack(&b, e.Track)
		b.WriteString("</detail>\n")
	case UnknownImageAttachment:
		writePoint(&b, e.Point)
		b.WriteString("<detail>\n")
		b.WriteString("<image mime=\"image/jpeg\" type=\"VIS\">")
		b.WriteString(e.Image)
		b.WriteString("</image>\n")
		b.WriteString("</detail>\n")
	}

	b.WriteString("</event>\n")
	return b.String()
}

func writeTrack(b *strings.Builder, t *Track) {
	if t == nil {
		return
	}
	b.WriteString("<track course=\"" + t.Course + "\"")
	if t.Heading != "" {
		b.WriteString(" heading=\"" + t.Heading + "\"")
	}
	b.WriteString(" speed=\"" + t.Speed + "\" />\n")
}

func writePoint(b *strings.Builder, p Point) {
	b.WriteString("<point ce=\"" + p.CE + "\" hae=\"" + p.HAE + "\"")
	b.WriteString(" lat=\"" + formatFloat(p.Lat) + "\" le=\"" + p.LE + "\"")
	b.WriteString(" lon=\"" + formatFloat(p.Lon) + "\" />\n")
}

func escape(s string) string {
	var b strings.Builder
	// strings.Builder writes never fail
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
