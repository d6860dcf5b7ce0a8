// Package render materialises a remediated deck against the presentation
// template described by a layout catalog.
//
// Each slide is instantiated from its catalog layout, placeholders are
// addressed through their stable field keys (healing the key from the
// layout or catalog when the template lost it), text and assets are bound,
// and speaker notes are attached. The document is written once, after every
// slide rendered; any failure leaves no output behind. The returned
// RenderMap records which field keys ended up on which physical slide.
package render
