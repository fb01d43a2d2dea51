package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plume/internal/models"
)

func TestPostDetailIncludesComments(t *testing.T) {
	s, app := setupTestServer(t)
	user := createUser(t, s, "alice")
	post := createPost(t, s, user.ID, "hello", nil)
	require.NoError(t, s.db.Create(&models.Comment{
		Text: "nice one", UserID: user.ID, PostID: post.ID,
	}).Error)

	resp := doRequest(t, app, testRequest{method: "GET", target: postPath(post.ID)})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Post             models.Post      `json:"post"`
		Comments         []models.Comment `json:"comments"`
		AuthorPostsCount int64            `json:"author_posts_count"`
	}
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &body))
	assert.Equal(t, "hello", body.Post.Text)
	assert.Equal(t, "alice", body.Post.User.Username)
	assert.Equal(t, 1, body.Post.CommentsCount)
	require.Len(t, body.Comments, 1)
	assert.Equal(t, "nice one", body.Comments[0].Text)
	assert.EqualValues(t, 1, body.AuthorPostsCount)
}

func TestPostDetailUnknownID404(t *testing.T) {
	_, app := setupTestServer(t)

	resp := doRequest(t, app, testRequest{method: "GET", target: "/posts/9999/"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPostDetailMalformedID404(t *testing.T) {
	_, app := setupTestServer(t)

	resp := doRequest(t, app, testRequest{method: "GET", target: "/posts/abc/"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreatePostRequiresAuth(t *testing.T) {
	s, app := setupTestServer(t)

	resp := doRequest(t, app, testRequest{
		method: "POST",
		target: "/create/",
		form:   url.Values{"text": {"drive-by"}},
	})
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	var count int64
	require.NoError(t, s.db.Model(&models.Post{}).Count(&count).Error)
	assert.Zero(t, count, "anonymous create must not store a post")
}

func TestCreatePostRedirectsToProfile(t *testing.T) {
	s, app := setupTestServer(t)
	user := createUser(t, s, "alice")

	resp := doRequest(t, app, testRequest{
		method: "POST",
		target: "/create/",
		form:   url.Values{"text": {"my first post"}},
		token:  authToken(t, user.ID),
	})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/profile/alice/", resp.Header.Get("Location"))

	var post models.Post
	require.NoError(t, s.db.First(&post).Error)
	assert.Equal(t, "my first post", post.Text)
	assert.Equal(t, user.ID, post.UserID)
	assert.Nil(t, post.GroupID)
}

func TestCreatePostAuthorComesFromSession(t *testing.T) {
	s, app := setupTestServer(t)
	alice := createUser(t, s, "alice")
	mallory := createUser(t, s, "mallory")

	resp := doRequest(t, app, testRequest{
		method: "POST",
		target: "/create/",
		form: url.Values{
			"text":    {"forged"},
			"user_id": {"1"}, // ignored
		},
		token: authToken(t, mallory.ID),
	})
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	var post models.Post
	require.NoError(t, s.db.First(&post).Error)
	assert.Equal(t, mallory.ID, post.UserID)
	assert.NotEqual(t, alice.ID, post.UserID)
}

func TestCreatePostWithGroup(t *testing.T) {
	s, app := setupTestServer(t)
	user := createUser(t, s, "alice")
	group := createGroup(t, s, "cats")

	resp := doRequest(t, app, testRequest{
		method: "POST",
		target: "/create/",
		form: url.Values{
			"text":  {"grouped"},
			"group": {"1"},
		},
		token: authToken(t, user.ID),
	})
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	var post models.Post
	require.NoError(t, s.db.First(&post).Error)
	require.NotNil(t, post.GroupID)
	assert.Equal(t, group.ID, *post.GroupID)
}

func TestCreatePostEmptyTextRerendersForm(t *testing.T) {
	s, app := setupTestServer(t)
	user := createUser(t, s, "alice")

	resp := doRequest(t, app, testRequest{
		method: "POST",
		target: "/create/",
		form:   url.Values{"text": {""}},
		token:  authToken(t, user.ID),
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode, "invalid form re-renders, no redirect")

	var body struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &body))
	assert.Contains(t, body.Errors, "text")

	var count int64
	require.NoError(t, s.db.Model(&models.Post{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreatePostUnknownGroupRerendersForm(t *testing.T) {
	s, app := setupTestServer(t)
	user := createUser(t, s, "alice")

	resp := doRequest(t, app, testRequest{
		method: "POST",
		target: "/create/",
		form:   url.Values{"text": {"ok"}, "group": {"42"}},
		token:  authToken(t, user.ID),
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &body))
	assert.Contains(t, body.Errors, "group")
}

func TestCreatePostWithImageUpload(t *testing.T) {
	s, app := setupTestServer(t)
	user := createUser(t, s, "alice")

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 1, 1))))

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("text", "with picture"))
	part, err := writer.CreateFormFile("image", "pic.png")
	require.NoError(t, err)
	_, err = part.Write(img.Bytes())
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	resp := doRequest(t, app, testRequest{
		method: "POST",
		target: "/create/",
		body:   &buf,
		ctype:  writer.FormDataContentType(),
		token:  authToken(t, user.ID),
	})
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	var post models.Post
	require.NoError(t, s.db.First(&post).Error)
	assert.NotEmpty(t, post.ImagePath)
	assert.Contains(t, post.ImagePath, ".png")
}

func TestCreatePostRejectsNonImageUpload(t *testing.T) {
	s, app := setupTestServer(t)
	user := createUser(t, s, "alice")

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("text", "with junk"))
	part, err := writer.CreateFormFile("image", "junk.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("definitely not pixels"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	resp := doRequest(t, app, testRequest{
		method: "POST",
		target: "/create/",
		body:   &buf,
		ctype:  writer.FormDataContentType(),
		token:  authToken(t, user.ID),
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &body))
	assert.Contains(t, body.Errors, "image")

	var count int64
	require.NoError(t, s.db.Model(&models.Post{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEditPostByAuthor(t *testing.T) {
	s, app := setupTestServer(t)
	user := createUser(t, s, "alice")
	post := createPost(t, s, user.ID, "original", nil)

	resp := doRequest(t, app, testRequest{
		method: "POST",
		target: postPath(post.ID) + "edit/",
		form:   url.Values{"text": {"edited"}},
		token:  authToken(t, user.ID),
	})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, postPath(post.ID), resp.Header.Get("Location"))

	var got models.Post
	require.NoError(t, s.db.First(&got, post.ID).Error)
	assert.Equal(t, "edited", got.Text)
	assert.Equal(t, user.ID, got.UserID, "editing never changes authorship")
}

func TestEditPostByNonAuthorRedirectsWithoutChange(t *testing.T) {
	s, app := setupTestServer(t)
	alice := createUser(t, s, "alice")
	mallory := createUser(t, s, "mallory")
	post := createPost(t, s, alice.ID, "original", nil)

	resp := doRequest(t, app, testRequest{
		method: "POST",
		target: postPath(post.ID) + "edit/",
		form:   url.Values{"text": {"defaced"}},
		token:  authToken(t, mallory.ID),
	})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, postPath(post.ID), resp.Header.Get("Location"))

	var got models.Post
	require.NoError(t, s.db.First(&got, post.ID).Error)
	assert.Equal(t, "original", got.Text, "non-author edit must not persist")
}

func TestEditPostFormByNonAuthorRedirects(t *testing.T) {
	s, app := setupTestServer(t)
	alice := createUser(t, s, "alice")
	mallory := createUser(t, s, "mallory")
	post := createPost(t, s, alice.ID, "original", nil)

	resp := doRequest(t, app, testRequest{
		method: "GET",
		target: postPath(post.ID) + "edit/",
		token:  authToken(t, mallory.ID),
	})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, postPath(post.ID), resp.Header.Get("Location"))
}

func TestEditPostRequiresAuth(t *testing.T) {
	s, app := setupTestServer(t)
	alice := createUser(t, s, "alice")
	post := createPost(t, s, alice.ID, "original", nil)

	resp := doRequest(t, app, testRequest{
		method: "GET",
		target: postPath(post.ID) + "edit/",
	})
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/auth/login/", loc.Path)
}

func TestEditUnknownPost404(t *testing.T) {
	s, app := setupTestServer(t)
	user := createUser(t, s, "alice")

	resp := doRequest(t, app, testRequest{
		method: "POST",
		target: "/posts/9999/edit/",
		form:   url.Values{"text": {"whatever"}},
		token:  authToken(t, user.ID),
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreatePostFormListsGroups(t *testing.T) {
	s, app := setupTestServer(t)
	user := createUser(t, s, "alice")
	createGroup(t, s, "cats")

	resp := doRequest(t, app, testRequest{
		method: "GET",
		target: "/create/",
		token:  authToken(t, user.ID),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Groups []models.Group `json:"groups"`
	}
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &body))
	require.Len(t, body.Groups, 1)
	assert.Equal(t, "cats", body.Groups[0].Slug)
}
