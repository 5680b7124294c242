package stylesheet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/boardicon/boardicon-server/internal/domain"
)

const (
	nodeSel    = ".wbbBoardList li[data-board-id=\"%s\"] > .wbbBoard > .icon,\n.wbbSubBoards li[data-board-id=\"%s\"] > .icon {\n"
	nodeNewSel = ".wbbBoardList li[data-board-id=\"%s\"] > .wbbBoard.new > .icon,\n.wbbSubBoards li[data-board-id=\"%s\"].new > .icon {\n"
)

func node(id string) string    { return strings.ReplaceAll(nodeSel, "%s", id) }
func nodeNew(id string) string { return strings.ReplaceAll(nodeNewSel, "%s", id) }

func fontRule(sel, glyph, color string) string {
	return CompileRule(sel, glyph, color, nil)
}

func TestRender_EmptyInputIsHeaderOnly(t *testing.T) {
	got := Render(Input{}, Selectors{})
	assert.Equal(t, Header, string(got))

	// Categories and icon-less boards emit nothing.
	got = Render(Input{
		Defaults: domain.Defaults{domain.SlotBoard: ""},
		Boards: []*domain.Board{
			{ID: 1, Type: domain.BoardTypeCategory, Icon: domain.Assignment{Glyph: "icon-star"}},
			{ID: 2, Type: domain.BoardTypeBoard},
			{ID: 3, Type: domain.BoardTypeLink, IsClosed: true},
		},
	}, Selectors{})
	assert.Equal(t, Header, string(got))
}

func TestRender_DefaultsBlock(t *testing.T) {
	icons := linkMap{4: "/icon/board/4-f00.gif"}
	got := Render(Input{
		Icons: icons,
		Defaults: domain.Defaults{
			domain.SlotBoard:        "icon-star",
			domain.SlotExternalLink: "icon4",
		},
	}, Selectors{})

	want := Header +
		".wbbBoardList li > .wbbBoard > .icon,\n.wbbSubBoards li > .icon {\n" +
		fontRule(SelectorFolderAlt, "icon-star", "") +
		CompileRule(SelectorGlobe, "icon4", "", icons) +
		"}\n\n"
	assert.Equal(t, want, string(got))
}

func TestRender_ArchiveBlocksAreIndependent(t *testing.T) {
	archive := ".wbbBoardList li > .wbbBoard:not(.new) > .icon,\n.wbbSubBoards li:not(.new) > .icon {\n"

	got := Render(Input{Defaults: domain.Defaults{
		domain.SlotArchive:    "icon-lock",
		domain.SlotNewArchive: "icon-unlock",
	}}, Selectors{})

	want := Header +
		archive + fontRule(SelectorLock, "icon-lock", "") + "}\n\n" +
		archive + fontRule(SelectorLock, "icon-unlock", "") + "}\n\n"
	assert.Equal(t, want, string(got))

	got = Render(Input{Defaults: domain.Defaults{domain.SlotNewArchive: "icon-unlock"}}, Selectors{})
	assert.Equal(t, Header+archive+fontRule(SelectorLock, "icon-unlock", "")+"}\n\n", string(got))
}

func TestRender_OpenBoard(t *testing.T) {
	got := Render(Input{Boards: []*domain.Board{{
		ID:      5,
		Type:    domain.BoardTypeBoard,
		Icon:    domain.Assignment{Glyph: "icon-star", Color: "rgba(255, 0, 0, 1)"},
		IconNew: domain.Assignment{Glyph: "icon-heart"},
	}}}, Selectors{})

	want := Header + node("5") +
		fontRule(SelectorFolderAlt, "icon-star", "rgba(255, 0, 0, 1)") +
		fontRule(SelectorFolder, "icon-heart", "") +
		"}\n"
	assert.Equal(t, want, string(got))
	assert.Contains(t, string(got), "content: @icon-star;\n\t\t\tcolor: rgba(255, 0, 0, 1);")
}

func TestRender_OpenBoardOnlyNewColor(t *testing.T) {
	got := Render(Input{Boards: []*domain.Board{{
		ID:      6,
		Type:    domain.BoardTypeBoard,
		IconNew: domain.Assignment{Color: "rgba(0, 0, 255, 1)"},
	}}}, Selectors{})

	want := Header + node("6") + fontRule(SelectorFolder, "", "rgba(0, 0, 255, 1)") + "}\n"
	assert.Equal(t, want, string(got))
}

func TestRender_ClosedBoard(t *testing.T) {
	t.Run("one block without new icon", func(t *testing.T) {
		got := Render(Input{Boards: []*domain.Board{{
			ID: 8, Type: domain.BoardTypeBoard, IsClosed: true,
			Icon: domain.Assignment{Glyph: "icon-ban-circle"},
		}}}, Selectors{})

		want := Header + node("8") + fontRule(SelectorLock, "icon-ban-circle", "") + "}\n"
		assert.Equal(t, want, string(got))
		assert.Equal(t, 1, strings.Count(string(got), "data-board-id=\"8\"] > .wbbBoard"))
	})

	t.Run("two blocks with new icon", func(t *testing.T) {
		got := Render(Input{Boards: []*domain.Board{{
			ID: 8, Type: domain.BoardTypeBoard, IsClosed: true,
			IconNew: domain.Assignment{Glyph: "icon-unlock", Color: "rgba(0, 0, 0, 0.5)"},
		}}}, Selectors{})

		// The main block resets the lock glyph because icon is empty.
		want := Header +
			node("8") + fontRule(SelectorLock, "", "") + "}\n" +
			nodeNew("8") + fontRule(SelectorLock, "icon-unlock", "rgba(0, 0, 0, 0.5)") + "}\n"
		assert.Equal(t, want, string(got))
	})
}

func TestRender_Link(t *testing.T) {
	got := Render(Input{Boards: []*domain.Board{
		{ID: 9, Type: domain.BoardTypeLink, Icon: domain.Assignment{Glyph: "icon-github"}},
		// Only iconNew set: the block opens and closes with no rules.
		{ID: 10, Type: domain.BoardTypeLink, IconNew: domain.Assignment{Glyph: "icon-star"}},
	}}, Selectors{})

	want := Header +
		node("9") + fontRule(SelectorGlobe, "icon-github", "") + "}\n" +
		node("10") + "}\n"
	assert.Equal(t, want, string(got))
}

func TestRender_UploadedRoundTrip(t *testing.T) {
	icons := linkMap{7: "/icon/board/7-abc.png"}

	got := Render(Input{Icons: icons, Boards: []*domain.Board{{
		ID: 1, Type: domain.BoardTypeBoard, Icon: domain.Assignment{Glyph: "wbbBoardIcon7"},
	}}}, Selectors{})

	assert.Contains(t, string(got), "\t&.icon-folder-close-alt {\n\t\t&::before {\n\t\t\tcontent: '';\n\t\t}\n\t\t\n\t\tbackground-image: url(/icon/board/7-abc.png);")
}

func TestRender_DanglingReferenceVanishes(t *testing.T) {
	got := Render(Input{Icons: linkMap{}, Boards: []*domain.Board{{
		ID: 1, Type: domain.BoardTypeBoard, Icon: domain.Assignment{Glyph: "icon3"},
	}}}, Selectors{})

	assert.Equal(t, Header+node("1")+"}\n", string(got))
}

func TestRender_TreeOrderAndIdempotence(t *testing.T) {
	parent := int64(1)
	boards := []*domain.Board{
		{ID: 3, ParentID: &parent, Position: 1, Type: domain.BoardTypeBoard, Icon: domain.Assignment{Glyph: "icon-star"}},
		{ID: 1, Position: 0, Type: domain.BoardTypeBoard, Icon: domain.Assignment{Glyph: "icon-home"}},
		{ID: 2, ParentID: &parent, Position: 0, Type: domain.BoardTypeBoard, Icon: domain.Assignment{Glyph: "icon-book"}},
	}

	first := string(Render(Input{Boards: boards}, Selectors{}))
	second := string(Render(Input{Boards: boards}, Selectors{}))
	assert.Equal(t, first, second)

	i1 := strings.Index(first, `data-board-id="1"`)
	i2 := strings.Index(first, `data-board-id="2"`)
	i3 := strings.Index(first, `data-board-id="3"`)
	assert.True(t, i1 < i2 && i2 < i3, "expected depth-first order 1, 2, 3")
}

func TestRender_CustomSelectors(t *testing.T) {
	got := Render(Input{Boards: []*domain.Board{{
		ID: 4, Type: domain.BoardTypeBoard, Icon: domain.Assignment{Glyph: "icon-star"},
	}}}, Selectors{Node: ".boardList [data-id=\"{id}\"] .icon"})

	assert.Contains(t, string(got), ".boardList [data-id=\"4\"] .icon {\n")
}
