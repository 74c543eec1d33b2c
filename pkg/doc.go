// Package pkg provides the core libraries for excalift.
//
// # Overview
//
// Excalift converts Gliffy diagrams to Excalidraw documents and migrates
// Confluence instances away from the retired Gliffy plugin. The pkg
// directory is organized into four main areas:
//
//  1. Conversion — [gliffy] parses diagrams, [convert] builds Excalidraw
//     elements, [excalidraw] holds the output types, [tidmap] substitutes
//     images for templated shapes, [render] previews results via Graphviz.
//  2. Confluence — [confluence] is the REST client (Cloud and Data Center),
//     [scanner] inventories Gliffy usage, [migrate] splices exported images
//     into pages.
//  3. Infrastructure — [cache] (file, Redis), [httputil] retries,
//     [errors] error codes, [observability] hooks, [report] output and
//     Mongo storage.
//  4. Build — [buildinfo] version stamping.
//
// # Architecture
//
// The typical data flow:
//
//	.gliffy JSON
//	     ↓ gliffy.Parse
//	Diagram (nested groups, flattened)
//	     ↓ convert.Convert
//	excalidraw.Document
//	     ↓ render / web download / report
//
// The migration flow walks Confluence spaces, finds gliffy macros, downloads
// each diagram's exported image attachment and inserts it inline after the
// macro, so pages keep their diagrams when the plugin's renderer disappears.
package pkg
