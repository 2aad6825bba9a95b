package core

import (
	"context"
	"fmt"
	"time"

	"ThreadmarkArchiver/internal/adapter"
	"ThreadmarkArchiver/internal/config"
	"ThreadmarkArchiver/internal/model"
	"ThreadmarkArchiver/internal/network"
	"ThreadmarkArchiver/internal/store"
	"ThreadmarkArchiver/internal/textconv"

	"github.com/charmbracelet/log"
)

// ThreadQueue は、処理待ちスレッドの先入れ先出しキューです。
type ThreadQueue struct {
	items []model.ThreadDescriptor
}

// NewThreadQueue は、threads を発見順に積んだキューを返します。
func NewThreadQueue(threads []model.ThreadDescriptor) *ThreadQueue {
	q := &ThreadQueue{}
	for _, th := range threads {
		q.Push(th)
	}
	return q
}

func (q *ThreadQueue) Push(th model.ThreadDescriptor) {
	q.items = append(q.items, th)
}

// Pop は先頭のスレッドを取り出します。空の場合 ok は false です。
func (q *ThreadQueue) Pop() (th model.ThreadDescriptor, ok bool) {
	if len(q.items) == 0 {
		return model.ThreadDescriptor{}, false
	}
	th = q.items[0]
	q.items = q.items[1:]
	return th, true
}

func (q *ThreadQueue) Len() int {
	return len(q.items)
}

// DiscoverThreads は、ランディングページを取得し、作品名に一致するスレッドを返します。
func (a *Archiver) DiscoverThreads(ctx context.Context, landingURL, storyName string) ([]model.ThreadDescriptor, error) {
	body, err := a.Client.Get(ctx, landingURL)
	if err != nil {
		return nil, fmt.Errorf("ランディングページの取得に失敗しました (url=%s): %w", landingURL, err)
	}
	threads, err := a.Adapter.ParseLanding(body, landingURL, storyName)
	if err != nil {
		return nil, fmt.Errorf("ランディングページの解析に失敗しました (url=%s, size=%d bytes): %w", landingURL, len(body), err)
	}
	return threads, nil
}

// Run は、スレッドを発見してキューに積み、一つずつアーカイブします。
// 個々のスレッドの失敗は実行全体を止めません。
func (a *Archiver) Run(ctx context.Context, landingURL, storyName string) (*SessionStats, error) {
	stats := &SessionStats{StartTime: time.Now()}

	threads, err := a.DiscoverThreads(ctx, landingURL, storyName)
	if err != nil {
		return stats, err
	}
	if len(threads) == 0 {
		a.Logger.Infof("'%s' に一致するスレッドは見つかりませんでした。", storyName)
		return stats, nil
	}
	a.Logger.Infof("%d件の対象スレッドが見つかりました。", len(threads))

	queue := NewThreadQueue(threads)
	for queue.Len() > 0 {
		if ctx.Err() != nil {
			a.Logger.Warnf("シャットダウンシグナルにより、残り %d 件のスレッドの処理を中止します。", queue.Len())
			break
		}
		th, _ := queue.Pop()
		result := a.ArchiveThread(ctx, th)
		if result.State == ThreadFailed {
			a.Logger.Errorf("ERROR: スレッド %s のアーカイブに失敗しました: %v", th.Title, result.Err)
		}
		stats.Add(result)
	}

	return stats, nil
}

// NewTaskArchiver は、タスク設定から HTTP クライアント、サイトアダプタ、変換器を組み立てます。
func NewTaskArchiver(task config.Task, settings config.NetworkSettings, idx *store.Index, reporter ProgressReporter, logger *log.Logger) (*Archiver, error) {
	delay := network.NewDelayer(task.RequestIntervalMillis, task.MinIntervalMillis, task.MaxIntervalMillis)
	client, err := network.NewClient(settings, delay)
	if err != nil {
		return nil, fmt.Errorf("ネットワーククライアントの初期化に失敗しました: %w", err)
	}

	siteAdapter, err := adapter.GetAdapter(task.SiteAdapter)
	if err != nil {
		return nil, fmt.Errorf("サイトアダプタの取得に失敗しました: %w", err)
	}

	if reporter == nil {
		reporter = NopReporter{}
	}

	return &Archiver{
		Client:     client,
		Adapter:    siteAdapter,
		Content:    NewContentFetcher(client, siteAdapter, textconv.NewMarkdownConverter("")),
		FS:         OSFileSystem{},
		Index:      idx,
		Progress:   reporter,
		Logger:     logger,
		OutputRoot: task.SaveRootDirectory,
	}, nil
}

// ExecuteTask は、単一のタスクを一回実行し、統計情報を返します。
func ExecuteTask(ctx context.Context, task config.Task, settings config.NetworkSettings, idx *store.Index, reporter ProgressReporter, logger *log.Logger) (*SessionStats, error) {
	taskLogger := logger.WithPrefix(task.TaskName)
	taskLogger.Info("タスクを開始します。")

	archiver, err := NewTaskArchiver(task, settings, idx, reporter, taskLogger)
	if err != nil {
		return nil, err
	}
	if err := archiver.FS.MkdirAll(task.SaveRootDirectory); err != nil {
		return nil, fmt.Errorf("保存先ディレクトリの作成に失敗しました (path=%s): %w", task.SaveRootDirectory, err)
	}

	stats, err := archiver.Run(ctx, task.LandingURL, task.StoryName)
	if err != nil {
		return stats, err
	}
	taskLogger.Info(stats.FormatSessionInfo())
	return stats, nil
}
