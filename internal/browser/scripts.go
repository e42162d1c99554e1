package browser

import (
	"encoding/json"
	"fmt"
	"strings"
)

// prelude is shared by every injected script. Locators arrive as {CSS, Text}.
const prelude = `
const find = (loc) => {
	const els = Array.from(document.querySelectorAll(loc.CSS));
	if (!loc.Text) return els;
	const want = loc.Text.toLowerCase();
	return els.filter(el => (el.textContent || '').toLowerCase().includes(want));
};
const visible = (el) => {
	const style = window.getComputedStyle(el);
	if (style.display === 'none' || style.visibility === 'hidden') return false;
	const rect = el.getBoundingClientRect();
	return rect.width > 0 && rect.height > 0;
};
const nth = (loc, i) => {
	const el = find(loc)[i];
	if (!el) throw new Error('no element ' + i + ' for ' + loc.CSS);
	return el;
};
`

// script wraps fn, a JS function expression, so it is called with args
// encoded as JSON literals.
func script(fn string, args ...any) string {
	encoded := make([]string, len(args))
	for i, a := range args {
		b, err := json.Marshal(a)
		if err != nil {
			b = []byte("null")
		}
		encoded[i] = string(b)
	}
	return fmt.Sprintf("(function(){%s\nreturn (%s)(%s);})()", prelude, fn, strings.Join(encoded, ", "))
}

const (
	countJS = `function(loc, state) {
		const els = find(loc);
		return state === 'visible' ? els.filter(visible).length : els.length;
	}`

	textsJS = `function(loc) {
		return find(loc).map(el => el.innerText !== undefined ? el.innerText : (el.textContent || ''));
	}`

	clickJS = `function(loc, i) {
		const el = nth(loc, i);
		el.scrollIntoView({block: 'center'});
		el.click();
		return true;
	}`

	fillNearestJS = `function(loc, i, group, field, value) {
		const el = nth(loc, i);
		const container = el.closest(group);
		const input = container ? container.querySelector(field) : null;
		if (!input) return false;
		input.value = value;
		return true;
	}`

	scrollJS = `function(loc) {
		const el = find(loc)[0];
		if (el) el.scrollIntoView({behavior: 'smooth', block: 'center'});
		return !!el;
	}`

	describeJS = `function(loc) {
		return find(loc).map(el => ({
			tag: el.tagName.toLowerCase(),
			id: el.id || '',
			class: typeof el.className === 'string' ? el.className : '',
			text: (el.innerText || '').trim().slice(0, 200),
			type: el.type || '',
			placeholder: el.placeholder || '',
			visible: visible(el),
		}));
	}`
)
