package stylesheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type linkMap map[int64]string

func (m linkMap) Link(iconID int64) (string, bool) {
	link, ok := m[iconID]
	return link, ok
}

func TestCompileRule_UploadedIcon(t *testing.T) {
	icons := linkMap{7: "/icon/board/7-abc.png"}
	want := "\t&.icon-folder-close-alt {\n" +
		"\t\t&::before {\n" +
		"\t\t\tcontent: '';\n" +
		"\t\t}\n" +
		"\t\t\n" +
		"\t\tbackground-image: url(/icon/board/7-abc.png);\n" +
		"\t\tbackground-size: 100%;\n" +
		"\t\tbackground-repeat: no-repeat;\n" +
		"\t}\n"

	assert.Equal(t, want, CompileRule(SelectorFolderAlt, "wbbBoardIcon7", "", icons))
	assert.Equal(t, want, CompileRule(SelectorFolderAlt, "icon7", "", icons))

	// Color is ignored for uploaded icons.
	assert.Equal(t, want, CompileRule(SelectorFolderAlt, "icon7", "rgba(1, 2, 3, 1)", icons))
}

func TestCompileRule_DanglingReference(t *testing.T) {
	assert.Empty(t, CompileRule(SelectorLock, "icon99", "rgba(0, 0, 0, 1)", linkMap{}))
	assert.Empty(t, CompileRule(SelectorLock, "wbbBoardIcon1", "", nil))
}

func TestCompileRule_LibraryGlyph(t *testing.T) {
	tests := []struct {
		name  string
		glyph string
		color string
		want  string
	}{
		{
			name:  "glyph and color",
			glyph: "icon-star",
			color: "rgba(255, 0, 0, 1)",
			want:  "\t&.icon-folder-close {\n\t\tbackground-image: none;\n\t\t\n\t\t&::before {\n\t\t\tcontent: @icon-star;\n\t\t\tcolor: rgba(255, 0, 0, 1);\n\t\t}\n\t}\n",
		},
		{
			name:  "glyph only",
			glyph: "icon-star",
			want:  "\t&.icon-folder-close {\n\t\tbackground-image: none;\n\t\t\n\t\t&::before {\n\t\t\tcontent: @icon-star;\n\t\t}\n\t}\n",
		},
		{
			name:  "color only",
			color: "rgba(0, 128, 0, 0.5)",
			want:  "\t&.icon-folder-close {\n\t\tbackground-image: none;\n\t\t\n\t\t&::before {\n\t\t\tcolor: rgba(0, 128, 0, 0.5);\n\t\t}\n\t}\n",
		},
		{
			name: "explicit reset",
			want: "\t&.icon-folder-close {\n\t\tbackground-image: none;\n\t\t\n\t\t&::before {\n\t\t}\n\t}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompileRule(SelectorFolder, tt.glyph, tt.color, linkMap{}))
		})
	}
}
