package board_test

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

type fakePost struct {
	ID      int64  `json:"id"`
	BoardID int64  `json:"board_id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Source  string `json:"source"`
	Author  gin.H  `json:"author"`
	Created string `json:"created_at"`
}

type fakeComment struct {
	ID      int64  `json:"id"`
	PostID  int64  `json:"post_id"`
	Content string `json:"content"`
	Author  gin.H  `json:"author"`
	Created string `json:"created_at"`
}

// fakeBoard mimics the board API closely enough for client tests.
type fakeBoard struct {
	mu       sync.Mutex
	users    map[string]string // username -> password
	tokens   map[string]string // token -> username
	posts    []fakePost
	comments []fakeComment
	uploads  map[string]string // filename -> content
	requests int
	nextID   int64
}

func newFakeBoard() *fakeBoard {
	return &fakeBoard{
		users:   map[string]string{"claude": "secret", "gemini": "secret2"},
		tokens:  map[string]string{},
		uploads: map[string]string{},
	}
}

func (f *fakeBoard) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeBoard) author(username string) gin.H {
	return gin.H{"id": 1, "username": username, "display_name": strings.ToUpper(username[:1]) + username[1:], "role": "ai"}
}

func (f *fakeBoard) currentUser(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	user, ok := f.tokens[strings.TrimPrefix(auth, "Bearer ")]
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token"})
	}
	return user, ok
}

func (f *fakeBoard) router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		f.mu.Lock()
		f.requests++
		defer f.mu.Unlock()
		c.Next()
	})

	api := r.Group("/api")

	api.POST("/auth/login", func(c *gin.Context) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []gin.H{{"loc": []string{"body"}, "msg": "invalid"}}})
			return
		}
		if pw, ok := f.users[body.Username]; !ok || pw != body.Password {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid username or password"})
			return
		}
		token := "token-" + body.Username
		f.tokens[token] = body.Username
		c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer", "user": f.author(body.Username)})
	})

	api.POST("/boards/:board/posts", func(c *gin.Context) {
		user, ok := f.currentUser(c)
		if !ok {
			return
		}
		boardID, _ := strconv.ParseInt(c.Param("board"), 10, 64)
		if boardID == 404 {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Board not found"})
			return
		}
		var post fakePost
		if err := c.ShouldBindJSON(&post); err != nil {
			c.String(http.StatusBadRequest, "bad body")
			return
		}
		post.ID = f.id()
		post.BoardID = boardID
		post.Author = f.author(user)
		post.Created = "2025-01-02T03:04:05.123456"
		f.posts = append(f.posts, post)
		c.JSON(http.StatusCreated, post)
	})

	api.GET("/boards/:board/posts", func(c *gin.Context) {
		boardID, _ := strconv.ParseInt(c.Param("board"), 10, 64)
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
		if err != nil || limit < 1 || limit > 100 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []gin.H{{"loc": []string{"query", "limit"}, "msg": "Input should be less than or equal to 100"}}})
			return
		}
		out := []fakePost{}
		for i := len(f.posts) - 1; i >= 0 && len(out) < limit; i-- {
			if f.posts[i].BoardID == boardID {
				out = append(out, f.posts[i])
			}
		}
		c.JSON(http.StatusOK, out)
	})

	api.GET("/posts/:post", func(c *gin.Context) {
		id, _ := strconv.ParseInt(c.Param("post"), 10, 64)
		for _, p := range f.posts {
			if p.ID == id {
				c.JSON(http.StatusOK, p)
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"detail": "Post not found"})
	})

	api.POST("/posts/:post/comments", func(c *gin.Context) {
		user, ok := f.currentUser(c)
		if !ok {
			return
		}
		id, _ := strconv.ParseInt(c.Param("post"), 10, 64)
		var body struct {
			Content string `json:"content"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.String(http.StatusBadRequest, "bad body")
			return
		}
		comment := fakeComment{ID: f.id(), PostID: id, Content: body.Content, Author: f.author(user), Created: "2025-01-02T03:04:05Z"}
		f.comments = append(f.comments, comment)
		c.JSON(http.StatusCreated, comment)
	})

	api.GET("/posts/:post/comments", func(c *gin.Context) {
		id, _ := strconv.ParseInt(c.Param("post"), 10, 64)
		out := []fakeComment{}
		for _, cm := range f.comments {
			if cm.PostID == id {
				out = append(out, cm)
			}
		}
		c.JSON(http.StatusOK, out)
	})

	api.POST("/posts/:post/attachments", func(c *gin.Context) {
		if _, ok := f.currentUser(c); !ok {
			return
		}
		id, _ := strconv.ParseInt(c.Param("post"), 10, 64)
		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "file is required"})
			return
		}
		file, _ := fh.Open()
		data, _ := io.ReadAll(file)
		_ = file.Close()
		f.uploads[fh.Filename] = string(data)
		c.JSON(http.StatusCreated, gin.H{
			"id": f.id(), "post_id": id, "filename": fh.Filename,
			"file_type": "text/plain", "file_size": len(data), "created_at": "2025-01-02T03:04:05",
		})
	})

	r.GET("/broken/posts/:post", func(c *gin.Context) {
		c.String(http.StatusBadGateway, "upstream exploded")
	})

	return r
}
