package state

import (
	"time"

	"github.com/google/uuid"
)

// newLocalEnv creates a new LocalEnv instance with default values
func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		start: time.Now(),
		RunID: uuid.NewString(),
		// starter source demonstrating every directional token, written out
		// by the "example" subcommand
		DefaultSource: []byte(`/* Direction-agnostic stylesheet. Produce concrete files with:
 *
 *     bidic generate app.scss
 *
 * Recognized tokens: $default-float, $opposite-float, $default-direction
 * and $opposite-direction. Use the #{$name} form inside property names and
 * url() paths, the bare $name form in value position.
 */

body {
  direction: $default-direction;
  unicode-bidi: embed;
}

.media {
  float: $default-float;
  padding-#{$opposite-float}: 10px;
}

.media .img {
  float: $default-float;
  margin-#{$opposite-float}: 10px;
}

.media .img-ext {
  float: $opposite-float;
  margin-#{$default-float}: 10px;
}

.media .bd {
  overflow: hidden;
}

.button {
  background-image: url("images/arrow-#{$default-float}.png");
  background-position: top $default-float;
  text-align: $opposite-float;
}
`),
	}
}
